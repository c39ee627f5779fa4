package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/joeycumines/nudi/internal/config"
	"github.com/joeycumines/nudi/internal/storage"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(_ context.Context, args []string, s Streams) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(s.Out, "nudi - convert Kannada text between Nudi ASCII and Unicode")
		_, _ = fmt.Fprintln(s.Out, "")
		_, _ = fmt.Fprintln(s.Out, "Usage: nudi <command> [options] [args...]")
		_, _ = fmt.Fprintln(s.Out, "")
		_, _ = fmt.Fprintln(s.Out, "Available commands:")

		w := tabwriter.NewWriter(s.Out, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(s.Out, "")
		_, _ = fmt.Fprintln(s.Out, "Use 'nudi help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(s.Err, "Unknown command: %s\n", args[0])
		return err
	}

	_, _ = fmt.Fprintf(s.Out, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(s.Out, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(s.Out, "Usage: %s\n", cmd.Usage())

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(s.Out, "")
		_, _ = fmt.Fprintln(s.Out, "Flags:")
		_, _ = fmt.Fprint(s.Out, buf.String())
	}
	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(_ context.Context, args []string, s Streams) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(s.Err, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}
	_, _ = fmt.Fprintf(s.Out, "nudi version %s\n", c.version)
	return nil
}

// ConfigCommand shows, validates and persists configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	section    string
	showAll    bool
}

// NewConfigCommand creates a new config command. When configPath is empty,
// set values are not written to disk.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [key] [value]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.section, "section", "", "Command section to read or write (e.g. convert)")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global and command-specific)")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(_ context.Context, args []string, s Streams) error {
	if len(args) == 0 {
		if c.showAll {
			c.printAll(s.Out)
			return nil
		}
		_, _ = fmt.Fprintln(s.Out, "Configuration management:")
		_, _ = fmt.Fprintln(s.Out, "  config <key>                      - Get configuration value")
		_, _ = fmt.Fprintln(s.Out, "  config <key> <value>              - Set configuration value")
		_, _ = fmt.Fprintln(s.Out, "  config -section <name> <key> ...  - Get or set a command option")
		_, _ = fmt.Fprintln(s.Out, "  config -all                       - Show all configuration")
		_, _ = fmt.Fprintln(s.Out, "  config validate                   - Validate configuration")
		_, _ = fmt.Fprintln(s.Out, "  config schema                     - Show configuration schema")
		return nil
	}

	switch args[0] {
	case "validate":
		return c.executeValidate(s.Out)
	case "schema":
		_, _ = fmt.Fprint(s.Out, config.DefaultSchema().FormatHelp())
		return nil
	}

	switch len(args) {
	case 1:
		key := args[0]
		var value string
		if c.section != "" {
			value = config.DefaultSchema().ResolveCommand(c.config, c.section, key)
		} else {
			value = c.config.GetString(key)
		}
		if value == "" && !c.isSet(key) {
			_, _ = fmt.Fprintf(s.Out, "Configuration key '%s' not found\n", c.qualified(key))
			return nil
		}
		_, _ = fmt.Fprintf(s.Out, "%s: %s\n", c.qualified(key), value)
		return nil

	case 2:
		key, value := args[0], args[1]
		if c.section != "" {
			c.config.SetCommandOption(c.section, key, value)
		} else {
			c.config.SetGlobalOption(key, value)
		}
		for _, issue := range config.ValidateConfig(c.config, config.DefaultSchema()) {
			if strings.Contains(issue, fmt.Sprintf("%q", key)) {
				_, _ = fmt.Fprintf(s.Err, "Warning: %s\n", issue)
			}
		}
		if c.configPath != "" {
			if err := config.SetKeyInFile(c.configPath, c.section, key, value); err != nil {
				_, _ = fmt.Fprintf(s.Err, "Warning: failed to persist config to disk: %v\n", err)
			}
		}
		_, _ = fmt.Fprintf(s.Out, "Set configuration: %s = %s\n", c.qualified(key), value)
		return nil
	}

	_, _ = fmt.Fprintln(s.Err, "Invalid number of arguments")
	return errors.New("invalid arguments")
}

func (c *ConfigCommand) isSet(key string) bool {
	if c.section != "" {
		_, ok := c.config.GetCommandOption(c.section, key)
		return ok
	}
	_, ok := c.config.GetGlobalOption(key)
	return ok
}

func (c *ConfigCommand) qualified(key string) string {
	if c.section == "" {
		return key
	}
	return "[" + c.section + "] " + key
}

func (c *ConfigCommand) printAll(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Global configuration:")
	for _, key := range slices.Sorted(maps.Keys(c.config.Global)) {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", key, c.config.Global[key])
	}
	_, _ = fmt.Fprintln(w, "\nCommand-specific configuration:")
	for _, cmd := range slices.Sorted(maps.Keys(c.config.Commands)) {
		_, _ = fmt.Fprintf(w, "  [%s]\n", cmd)
		options := c.config.Commands[cmd]
		for _, key := range slices.Sorted(maps.Keys(options)) {
			_, _ = fmt.Fprintf(w, "    %s: %s\n", key, options[key])
		}
	}
}

// executeValidate validates the current config against the schema.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

const defaultConfig = `# nudi configuration file
# Format: optionName remainingLineIsTheValue
# Use [command_name] sections for command-specific options.
# Run 'nudi config schema' for every option.

# Global options
verbose false

# Conversion script (defaults to the bundled converter).
# script.path /path/to/converter.js

convert.timeout 10s
convert.collapse-spaces true
convert.normalize true

# Logging (JSON records, rotated by size).
# log.file /path/to/nudi.log
log.level info

[convert]
mode a2u
`

// InitCommand writes a default configuration file.
type InitCommand struct {
	*BaseCommand
	configPath string
	force      bool
}

// NewInitCommand creates a new init command writing to configPath.
func NewInitCommand(configPath string) *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Initialize nudi configuration",
			"init [options]",
		),
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the init command.
func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Force initialization even if config already exists")
}

// Execute writes the default configuration.
func (c *InitCommand) Execute(_ context.Context, args []string, s Streams) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(s.Err, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}
	if c.configPath == "" {
		return errors.New("no configuration path")
	}

	if _, err := os.Stat(c.configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(s.Out, "Configuration already exists at: %s\n", c.configPath)
		_, _ = fmt.Fprintln(s.Out, "Use -force to overwrite existing configuration")
		return nil
	}

	if err := storage.AtomicWriteFile(c.configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	written, err := config.LoadFromPath(c.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(s.Err, "Warning: failed to load created config: %v\n", err)
	} else if issues := config.ValidateConfig(written, config.DefaultSchema()); len(issues) > 0 {
		_, _ = fmt.Fprintf(s.Err, "Warning: created config has %d issue(s)\n", len(issues))
	} else if mode, ok := written.GetCommandOption("convert", "mode"); ok {
		_, _ = fmt.Fprintf(s.Out, "Default conversion mode: %s\n", mode)
	}

	_, _ = fmt.Fprintf(s.Out, "Initialized nudi configuration at: %s\n", c.configPath)
	return nil
}
