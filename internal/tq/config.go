// Package tq implements the target-quality search: choosing, for one
// chunk, a quantizer whose perceptual score lands within tolerance of a
// target using a bounded number of probe encodes.
package tq

import (
	"fmt"
	"strconv"
	"strings"
)

// ToleranceRatio is the relative convergence band: a probe converges
// when |score-target|/target is under this ratio.
const ToleranceRatio = 0.01

// Config holds target-quality search configuration for a run.
type Config struct {
	// Target is the desired perceptual score.
	Target float64

	// QMin and QMax are the hard quantizer bounds that cannot be
	// exceeded regardless of prediction or cross-chunk seeding.
	QMin int
	QMax int

	// ProbeBudget is N, the maximum number of probe encodes per chunk.
	ProbeBudget int

	// ProbingRate selects every Nth frame be probed, out of
	// ProbingRateDenominator; e.g. rate=1, denominator=4 probes every
	// 4th frame.
	ProbingRate            int
	ProbingRateDenominator int

	// MetricMode specifies how per-frame scores are aggregated ("mean"
	// or a percentile like "p5").
	MetricMode string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		QMin:                   8,
		QMax:                   48,
		ProbeBudget:            10,
		ProbingRate:            1,
		ProbingRateDenominator: 4,
		MetricMode:             "mean",
	}
}

// ParseTarget parses a target score string (e.g. "75").
func ParseTarget(s string) (float64, error) {
	target, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target quality %q: %w", s, err)
	}
	return target, nil
}

// ParseQRange parses a quantizer search range string (e.g. "8-48").
func ParseQRange(s string) (min, max int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid quantizer range format %q, expected 'min-max' (e.g. '8-48')", s)
	}

	min, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantizer range min %q: %w", parts[0], err)
	}

	max, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantizer range max %q: %w", parts[1], err)
	}

	if min >= max {
		return 0, 0, fmt.Errorf("quantizer range min (%d) must be less than max (%d)", min, max)
	}

	return min, max, nil
}
