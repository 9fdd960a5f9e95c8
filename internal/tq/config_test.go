package tq

import "testing"

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget(" 75.0 ")
	if err != nil {
		t.Fatalf("ParseTarget() error = %v", err)
	}
	if got != 75.0 {
		t.Errorf("ParseTarget() = %v, want 75.0", got)
	}

	if _, err := ParseTarget("abc"); err == nil {
		t.Error("ParseTarget(\"abc\") should fail")
	}
}

func TestParseQRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin int
		wantMax int
		wantErr bool
	}{
		{name: "valid range", input: "8-48", wantMin: 8, wantMax: 48},
		{name: "valid range with spaces", input: " 8 - 48 ", wantMin: 8, wantMax: 48},
		{name: "invalid - no separator", input: "848", wantErr: true},
		{name: "invalid - min >= max", input: "48-8", wantErr: true},
		{name: "invalid - equal values", input: "20-20", wantErr: true},
		{name: "invalid - non-numeric min", input: "abc-48", wantErr: true},
		{name: "invalid - non-numeric max", input: "8-xyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, err := ParseQRange(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseQRange(%q) should have failed", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQRange(%q) error = %v", tt.input, err)
			}
			if min != tt.wantMin || max != tt.wantMax {
				t.Errorf("ParseQRange(%q) = (%d, %d), want (%d, %d)", tt.input, min, max, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.QMin >= cfg.QMax {
		t.Errorf("DefaultConfig() has QMin %d >= QMax %d", cfg.QMin, cfg.QMax)
	}
	if cfg.ProbeBudget <= 0 {
		t.Errorf("DefaultConfig() has non-positive ProbeBudget %d", cfg.ProbeBudget)
	}
}
