package config

import "strings"

// Preset selects a grouped set of encoder defaults, trading file size
// against fidelity without requiring the caller to tune every SVT-AV1
// parameter individually.
type Preset string

const (
	// PresetGrain favours fidelity on grainy or noisy sources: lower CRF,
	// slower SVT-AV1 preset.
	PresetGrain Preset = "grain"
	// PresetClean is the balanced default for typical live-action or
	// animated sources with little grain.
	PresetClean Preset = "clean"
	// PresetQuick trades quality for speed: higher CRF, faster preset.
	PresetQuick Preset = "quick"
)

// PresetValues is the set of Config fields a Preset overrides.
type PresetValues struct {
	CRFSD        uint8
	CRFHD        uint8
	CRFUHD       uint8
	SVTAV1Preset uint8
}

var presetTable = map[Preset]PresetValues{
	PresetGrain: {CRFSD: 22, CRFHD: 24, CRFUHD: 26, SVTAV1Preset: 4},
	PresetClean: {CRFSD: DefaultCRFSD, CRFHD: DefaultCRFHD, CRFUHD: DefaultCRFUHD, SVTAV1Preset: DefaultSVTAV1Preset},
	PresetQuick: {CRFSD: 28, CRFHD: 30, CRFUHD: 32, SVTAV1Preset: 8},
}

// ParsePreset parses a preset name, case-insensitively.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presetTable[p]; !ok {
		return "", ErrInvalidPreset
	}
	return p, nil
}

// GetPresetValues returns the grouped defaults for a preset.
func GetPresetValues(p Preset) PresetValues {
	return presetTable[p]
}

// ApplyPreset overrides c's quality fields with p's grouped defaults and
// records which preset was applied.
func (c *Config) ApplyPreset(p Preset) {
	values := GetPresetValues(p)
	c.CRFSD = values.CRFSD
	c.CRFHD = values.CRFHD
	c.CRFUHD = values.CRFUHD
	c.SVTAV1Preset = values.SVTAV1Preset
	c.DraptoPreset = &p
}
