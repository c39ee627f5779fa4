package command

import (
	"bytes"
	"context"
	"flag"
	"io"
	"strings"
	"testing"
	"time"
)

// isolateEnv clears the environment overrides the schema consults.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NUDI_SCRIPT", "NUDI_LOG_FILE", "NUDI_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

// run parses args with cmd's flags and executes it.
func run(t *testing.T, cmd Command, stdin io.Reader, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	var out, errOut bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = cmd.Execute(ctx, fs.Args(), Streams{In: stdin, Out: &out, Err: &errOut})
	return out.String(), errOut.String(), err
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewVersionCommand("1.0.0"))
	registry.Register(NewHelpCommand(registry))

	cmd, err := registry.Get("version")
	if err != nil {
		t.Fatalf("Failed to get registered command: %v", err)
	}
	if cmd.Name() != "version" {
		t.Errorf("Expected command name 'version', got '%s'", cmd.Name())
	}

	if _, err := registry.Get("nonexistent"); err == nil {
		t.Error("Expected error for non-existent command, got nil")
	}

	got := strings.Join(registry.List(), ",")
	if got != "help,version" {
		t.Errorf("Expected sorted list 'help,version', got %q", got)
	}
}

func TestHelpCommand(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewVersionCommand("1.0.0"))
	registry.Register(NewConvertCommand(nil))
	cmd := NewHelpCommand(registry)
	registry.Register(cmd)

	t.Run("general help", func(t *testing.T) {
		stdout, _, err := run(t, cmd, nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		for _, part := range []string{"nudi", "Usage: nudi <command>", "Available commands:", "convert", "version"} {
			if !strings.Contains(stdout, part) {
				t.Errorf("Expected output to contain %q. Output: %s", part, stdout)
			}
		}
	})

	t.Run("command help lists flags", func(t *testing.T) {
		stdout, _, err := run(t, cmd, nil, "convert")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		for _, part := range []string{"Command: convert", "Flags:", "-mode", "-collapse-spaces", "-lines"} {
			if !strings.Contains(stdout, part) {
				t.Errorf("Expected output to contain %q. Output: %s", part, stdout)
			}
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, stderr, err := run(t, cmd, nil, "bogus")
		if err == nil {
			t.Fatal("Expected error for unknown command")
		}
		if !strings.Contains(stderr, "Unknown command: bogus") {
			t.Errorf("Unexpected stderr: %s", stderr)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, NewVersionCommand("1.2.3"), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stdout != "nudi version 1.2.3\n" {
		t.Errorf("Unexpected output: %q", stdout)
	}

	if _, _, err := run(t, NewVersionCommand("1.2.3"), nil, "extra"); err == nil {
		t.Error("Expected error for unexpected arguments")
	}
}
