package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/joeycumines/nudi/internal/config"
	"github.com/joeycumines/nudi/internal/logging"
	"github.com/joeycumines/nudi/internal/sanka"
	"github.com/joeycumines/nudi/internal/transcode"
)

// CheckCommand loads a conversion script and reports whether it is usable.
type CheckCommand struct {
	*BaseCommand
	config  *config.Config
	script  string
	timeout time.Duration
}

// NewCheckCommand creates a new check command.
func NewCheckCommand(cfg *config.Config) *CheckCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &CheckCommand{
		BaseCommand: NewBaseCommand(
			"check",
			"Load the conversion script and verify its entry points",
			"check [options]",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the check command.
func (c *CheckCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.script, "script", c.config.GetString("script.path"), "Script to check (empty checks the bundled script)")
	fs.DurationVar(&c.timeout, "timeout", c.config.GetDuration("convert.timeout"), "Maximum wait for the script to load")
}

// Execute loads the script and prints the outcome.
func (c *CheckCommand) Execute(ctx context.Context, args []string, s Streams) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(s.Err, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}

	name := c.script
	if name == "" {
		name = sanka.BundledName + " (bundled)"
	}
	_, _ = fmt.Fprintf(s.Out, "Script: %s\n", name)

	bridge, err := sanka.Open(ctx, sanka.Options{
		ScriptPath:  c.script,
		Logger:      logging.Discard(),
		SyncTimeout: c.config.GetDuration("host.sync-timeout"),
	})
	if err != nil {
		return err
	}
	defer bridge.Close()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := bridge.Check(ctx); err != nil {
		_, _ = fmt.Fprintln(s.Out, "Status: failed")
		return err
	}
	_, _ = fmt.Fprintf(s.Out, "Loaded in: %s\n", time.Since(start).Round(time.Millisecond))
	for _, fn := range transcode.Functions {
		_, _ = fmt.Fprintf(s.Out, "Defines: %s\n", fn)
	}
	_, _ = fmt.Fprintln(s.Out, "Status: ok")
	return nil
}
