package commands

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVersionVariables(t *testing.T) {
	// Verify default values are set
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestVersionDefaults(t *testing.T) {
	// Default values when not built with ldflags
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"Version default", Version, "dev"},
		{"Commit default", Commit, "unknown"},
		{"BuildDate default", BuildDate, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// In test context, these should be the defaults
			if tt.value != tt.expected {
				// This is expected when running via `go test` without ldflags
				t.Logf("%s = %q (expected %q in default build)", tt.name, tt.value, tt.expected)
			}
		})
	}
}

func TestVersionCommandJSON(t *testing.T) {
	app := newTestApp(t, nil)
	if err := app.run("version", "--json"); err != nil {
		t.Fatal(err)
	}

	var got map[string]string
	if err := json.Unmarshal(app.out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, app.out.String())
	}
	if got["version"] != Version || got["goVersion"] == "" {
		t.Errorf("version output = %v", got)
	}
}

func TestVersionCommandText(t *testing.T) {
	app := newTestApp(t, nil)
	if err := app.run("version"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(app.out.String(), "warehouse "+Version) {
		t.Errorf("output = %q", app.out.String())
	}
}
