package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType is the expected type of an option value.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeDuration OptionType = "duration"
	// TypeEnum values must be one of ConfigOption.Values.
	TypeEnum OptionType = "enum"
)

// ConfigOption declares a single configuration option.
type ConfigOption struct {
	// Key is the option name as it appears in the config file.
	Key  string
	Type OptionType
	// Default is the value used when neither env nor file set the option.
	Default     string
	Description string
	// Section is "" for global options, otherwise a command name.
	Section string
	// EnvVar overrides the option when set, even to "".
	EnvVar string
	// Values lists the accepted values of a TypeEnum option.
	Values []string
}

// ConfigSchema declares the options nudi understands.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds opt; a later registration of the same section/key wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := &opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds every option in opts.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the option for key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown reports whether key may appear in section. Global keys are allowed
// in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	return s.Lookup(section, key) != nil || s.byKey[key] != nil
}

// GlobalOptions returns the global options in registration order.
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	return s.SectionOptions("")
}

// SectionOptions returns the options of section in registration order.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted names of all non-global sections.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value of a global key: the env var declared
// for it (when non-empty), then the config file, then the schema default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v := os.Getenv(opt.EnvVar); v != "" {
			return v
		}
	}
	if c != nil {
		if v, ok := c.GetGlobalOption(key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveCommand is Resolve for a command section: the section value wins
// over the global resolution, and the section default applies last.
func (s *ConfigSchema) ResolveCommand(c *Config, command, key string) string {
	if c != nil {
		if v, ok := c.Commands[command][key]; ok {
			return v
		}
	}
	if opt := s.Lookup(command, key); opt != nil && s.Lookup("", key) == nil {
		return opt.Default
	}
	return s.Resolve(c, key)
}

// ValidateConfig returns human-readable issues (unknown options and type
// mismatches), sorted; empty means valid.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateValue(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			if err := validateValue(opt, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func validateValue(opt *ConfigOption, value string) error {
	switch opt.Type {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	case TypeEnum:
		for _, v := range opt.Values {
			if v == value {
				return nil
			}
		}
		return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Values, ", "), value)
	default:
		return fmt.Errorf("unknown option type %q", opt.Type)
	}
	return nil
}

// FormatHelp renders every registered option, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder
	if globals := s.GlobalOptions(); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}
	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}
	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-28s %s", o.Key, o.Description)
	var parts []string
	switch {
	case o.Type == TypeEnum:
		parts = append(parts, "one of: "+strings.Join(o.Values, ", "))
	case o.Type != "" && o.Type != TypeString:
		parts = append(parts, "type: "+string(o.Type))
	}
	if o.Default != "" {
		parts = append(parts, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		parts = append(parts, "env: "+o.EnvVar)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// DefaultSchema returns the schema of every option nudi reads.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: "verbose", Type: TypeBool, Default: "false", Description: "Print recent engine log records when a conversion fails"},

		{Key: "script.path", Type: TypeString, Description: "Conversion script to load instead of the bundled one", EnvVar: "NUDI_SCRIPT"},
		{Key: "host.sync-timeout", Type: TypeDuration, Default: "5s", Description: "Timeout for synchronous calls into the script host"},

		{Key: "convert.timeout", Type: TypeDuration, Default: "10s", Description: "Maximum wait for one conversion result"},
		{Key: "convert.collapse-spaces", Type: TypeBool, Default: "true", Description: "Collapse runs of spaces/tabs and trim input before converting"},
		{Key: "convert.normalize", Type: TypeBool, Default: "true", Description: "NFC-normalize Unicode input before converting to ASCII"},

		{Key: "log.file", Type: TypeString, Description: "Log file path (JSON records)", EnvVar: "NUDI_LOG_FILE"},
		{Key: "log.level", Type: TypeEnum, Default: "info", Values: []string{"debug", "info", "warn", "error"}, Description: "Log level", EnvVar: "NUDI_LOG_LEVEL"},
		{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Max number of rotated log backup files"},
		{Key: "log.buffer-size", Type: TypeInt, Default: "1000", Description: "In-memory log buffer size (entries)"},

		{Key: "mode", Section: "convert", Type: TypeEnum, Default: "a2u", Values: []string{"a2u", "u2a"}, Description: "Default conversion direction"},
	})
	return s
}
