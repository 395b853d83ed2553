package core

import "testing"

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"False", false},
		{"FALSE", false},
		{"no", false},
		{"off", false},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"on", true},
		{"anything", true},
		{"NO", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Truthy(tt.in); got != tt.want {
				t.Errorf("Truthy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnvTruthy(t *testing.T) {
	t.Setenv(EnvDebug, "off")
	if DebugEnabled() {
		t.Error("DebugEnabled() = true for off")
	}

	t.Setenv(EnvDebug, "1")
	if !DebugEnabled() {
		t.Error("DebugEnabled() = false for 1")
	}
}
