package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckCommand_Bundled(t *testing.T) {
	isolateEnv(t)
	stdout, _, err := run(t, NewCheckCommand(nil), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, part := range []string{"Script: sanka.js (bundled)", "Defines: convertAsciiToUnicode", "Defines: convertUnicodeToAscii", "Status: ok"} {
		if !strings.Contains(stdout, part) {
			t.Errorf("Expected output to contain %q. Output: %s", part, stdout)
		}
	}
}

func TestCheckCommand_IncompleteScript(t *testing.T) {
	isolateEnv(t)
	script := filepath.Join(t.TempDir(), "half.js")
	if err := os.WriteFile(script, []byte(`function convertAsciiToUnicode(s) {}`), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, NewCheckCommand(nil), nil, "-script", script)
	if err == nil {
		t.Fatal("Expected an error for a script missing an entry point")
	}
	if !strings.Contains(err.Error(), "convertUnicodeToAscii is not defined") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Status: failed") {
		t.Errorf("Expected failed status. Output: %s", stdout)
	}
}

func TestCheckCommand_BrokenScript(t *testing.T) {
	isolateEnv(t)
	script := filepath.Join(t.TempDir(), "broken.js")
	if err := os.WriteFile(script, []byte(`function (`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := run(t, NewCheckCommand(nil), nil, "-script", script)
	if err == nil || !strings.Contains(err.Error(), "broken.js") {
		t.Fatalf("Expected compile error naming the script, got: %v", err)
	}
}

func TestCheckCommand_MissingScript(t *testing.T) {
	isolateEnv(t)
	_, _, err := run(t, NewCheckCommand(nil), nil, "-script", filepath.Join(t.TempDir(), "nope.js"))
	if err == nil {
		t.Fatal("Expected error for a missing script")
	}
}
