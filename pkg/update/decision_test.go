package update

import (
	"strings"
	"testing"
)

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"v0.2.5", "0.2.5", true},
		{"0.2.5", "0.2.5", true},
		{"v1.0.0", "1.0.0", true},
		{"1.0.0", "1.0.0", true},
		{"v10.20.30", "10.20.30", true},
		{"v0.1", "0.1", true},
		{"1.2", "1.2", true},
		{"v0.2.5-rc1", "0.2.5-rc1", true},
		{"v1.0.0+build123", "1.0.0+build123", true},

		{"dev", "", false},
		{"0.0.0-dev", "", false},
		{"", "", false},
		{"   ", "", false},
		{"v", "", false},
		{"vx.y.z", "", false},
		{"not-a-version", "", false},
		{"1", "", false},
		{"v1", "", false},
		{"abc.def.ghi", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeVersion(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeVersion(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("NormalizeVersion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareSemver(t *testing.T) {
	tests := []struct {
		a       string
		b       string
		want    int
		wantErr bool
	}{
		{"0.2.5", "0.2.5", 0, false},
		{"1.0.0", "1.0.0", 0, false},
		{"10.20.30", "10.20.30", 0, false},

		{"0.2.4", "0.2.5", -1, false},
		{"0.2.5", "0.3.0", -1, false},
		{"0.2.5", "1.0.0", -1, false},
		{"1.0.0", "1.0.1", -1, false},
		{"1.0.0", "1.1.0", -1, false},
		{"1.0.0", "2.0.0", -1, false},

		{"0.2.5", "0.2.4", 1, false},
		{"0.3.0", "0.2.5", 1, false},
		{"1.0.0", "0.2.5", 1, false},
		{"1.0.1", "1.0.0", 1, false},
		{"1.1.0", "1.0.0", 1, false},
		{"2.0.0", "1.0.0", 1, false},

		{"1.0", "1.0.0", 0, false},
		{"1.0", "1.0.1", -1, false},
		{"1.1", "1.0.0", 1, false},

		{"0.2.5-rc1", "0.2.5", -1, false},
		{"0.2.5", "0.2.5-beta", 1, false},
		{"0.2.5-rc1", "0.2.5-rc2", -1, false},
		{"0.2.5-rc.10", "0.2.5-rc.2", 1, false},

		{"invalid", "0.2.5", 0, true},
		{"0.2.5", "invalid", 0, true},
		{"1", "1.0.0", 0, true},
	}

	for _, tt := range tests {
		name := tt.a + "_vs_" + tt.b
		t.Run(name, func(t *testing.T) {
			got, err := CompareSemver(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CompareSemver(%q, %q) expected error, got nil", tt.a, tt.b)
				}
				return
			}
			if err != nil {
				t.Fatalf("CompareSemver(%q, %q) unexpected error: %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Fatalf("CompareSemver(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDecidePublish(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		target    string
		exists    bool
		unchanged bool
		downgrade bool
		wantDec   Decision
	}{
		{"no formula creates", "", "v0.1.0", false, false, false, DecisionCreate},
		{"identical content skips", "v0.1.0", "v0.1.0", true, true, false, DecisionSkip},
		{"identical content skips even when downgrades allowed", "v0.1.0", "v0.1.0", true, true, true, DecisionSkip},

		{"newer release proceeds", "0.1.0", "v0.2.0", true, false, false, DecisionProceed},
		{"same version new instructions proceeds", "v0.2.0", "v0.2.0", true, false, false, DecisionProceed},
		{"major bump proceeds", "v0.9.0", "v1.0.0", true, false, false, DecisionProceed},

		{"older release refused", "v0.3.0", "v0.2.0", true, false, false, DecisionRefuse},
		{"older release allowed downgrades", "v0.3.0", "v0.2.0", true, false, true, DecisionDowngrade},
		{"backport after major downgrades", "v2.0.0", "v1.2.5", true, false, true, DecisionDowngrade},
		{"prerelease of current refused", "v1.0.0", "v1.0.0-rc1", true, false, false, DecisionRefuse},

		{"unparseable tap version proceeds", "", "v0.2.0", true, false, false, DecisionProceed},
		{"date tag proceeds", "2024.05", "2024-06-01", true, false, false, DecisionProceed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, msg := DecidePublish(tt.current, tt.target, tt.exists, tt.unchanged, tt.downgrade)
			if dec != tt.wantDec {
				t.Fatalf("decision = %v, want %v (msg: %s)", dec, tt.wantDec, msg)
			}
			if msg == "" {
				t.Fatal("message should not be empty")
			}
		})
	}
}

func TestDecisionPublishes(t *testing.T) {
	for _, d := range []Decision{DecisionCreate, DecisionProceed, DecisionDowngrade} {
		if !d.Publishes() {
			t.Fatalf("%s should publish", d)
		}
	}
	for _, d := range []Decision{DecisionSkip, DecisionRefuse} {
		if d.Publishes() {
			t.Fatalf("%s should not publish", d)
		}
	}
}

func TestFormatVersionDisplay(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0.2.5", "v0.2.5"},
		{"v0.2.5", "v0.2.5"},
		{"dev", "dev"},
		{"", ""},
		{"0.0.0-dev", "0.0.0-dev"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := FormatVersionDisplay(tt.input)
			if got != tt.want {
				t.Fatalf("FormatVersionDisplay(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescribeDecision(t *testing.T) {
	tests := []struct {
		decision     Decision
		wantContains string
	}{
		{DecisionCreate, "new"},
		{DecisionSkip, "unchanged"},
		{DecisionRefuse, "refused"},
		{DecisionProceed, "update"},
		{DecisionDowngrade, "downgrade"},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			got := DescribeDecision(tt.decision)
			if !strings.Contains(strings.ToLower(got), strings.ToLower(tt.wantContains)) {
				t.Fatalf("DescribeDecision(%v) = %q, want to contain %q", tt.decision, got, tt.wantContains)
			}
		})
	}
}
