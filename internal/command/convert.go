package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joeycumines/nudi/internal/config"
	"github.com/joeycumines/nudi/internal/sanka"
	"github.com/joeycumines/nudi/internal/storage"
	"github.com/joeycumines/nudi/internal/textio"
	"github.com/joeycumines/nudi/internal/transcode"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

// recentOnFailure is how many buffered log records verbose mode prints when
// a conversion fails.
const recentOnFailure = 20

// ConvertCommand converts text between Nudi ASCII and Unicode.
type ConvertCommand struct {
	*BaseCommand
	config *config.Config

	mode      string
	file      string
	output    string
	lines     bool
	collapse  bool
	normalize bool
	timeout   time.Duration
	stats     bool
	logPath   string
	logLevel  string

	// isTerminal reports whether r is an interactive terminal.
	isTerminal func(r io.Reader) bool
}

// NewConvertCommand creates a new convert command. Flag defaults come from
// cfg.
func NewConvertCommand(cfg *config.Config) *ConvertCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &ConvertCommand{
		BaseCommand: NewBaseCommand(
			"convert",
			"Convert text between Nudi ASCII and Unicode Kannada",
			"convert [options] [text...]",
		),
		config:     cfg,
		isTerminal: isTerminal,
	}
}

// SetupFlags configures the flags for the convert command.
func (c *ConvertCommand) SetupFlags(fs *flag.FlagSet) {
	schema := config.DefaultSchema()
	fs.StringVar(&c.mode, "mode", schema.ResolveCommand(c.config, "convert", "mode"), "Conversion direction: a2u (ASCII to Unicode) or u2a (Unicode to ASCII)")
	fs.StringVar(&c.file, "file", "", "Read input from a text file instead of arguments or stdin")
	fs.StringVar(&c.output, "o", "", "Write the result to a file (replaced atomically)")
	fs.BoolVar(&c.lines, "lines", false, "Convert each line as a separate request")
	fs.BoolVar(&c.collapse, "collapse-spaces", c.config.GetBool("convert.collapse-spaces"), "Collapse runs of spaces and tabs, and trim the input")
	fs.BoolVar(&c.normalize, "normalize", c.config.GetBool("convert.normalize"), "NFC-normalize input before converting to ASCII")
	fs.DurationVar(&c.timeout, "timeout", c.config.GetDuration("convert.timeout"), "Maximum wait for one conversion (0 waits indefinitely)")
	fs.BoolVar(&c.stats, "stats", false, "Print character counts and timing to stderr")
	fs.StringVar(&c.logPath, "log-file", "", "Path to log file (JSON output)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the conversion.
func (c *ConvertCommand) Execute(ctx context.Context, args []string, s Streams) error {
	dir, err := transcode.ParseDirection(c.mode)
	if err != nil {
		return err
	}

	input, err := c.readInput(args, s.In)
	if err != nil {
		return err
	}

	lc, err := resolveLogConfig(c.logPath, c.logLevel, c.config)
	if err != nil {
		return err
	}
	defer lc.close()
	logger := lc.logger()

	bridge, err := sanka.Open(ctx, sanka.Options{
		ScriptPath:  c.config.GetString("script.path"),
		Logger:      logger.Logger,
		SyncTimeout: c.config.GetDuration("host.sync-timeout"),
	})
	if err != nil {
		return err
	}
	defer bridge.Close()

	start := time.Now()
	var result string
	if c.lines {
		result, err = c.convertLines(ctx, bridge, dir, input)
	} else {
		result, err = c.convertOne(ctx, bridge, dir, input)
	}
	if err != nil {
		var scriptErr *transcode.ScriptError
		if c.config.GetBool("verbose") {
			printRecent(s.Err, logger, recentOnFailure)
		}
		if errors.As(err, &scriptErr) {
			_, _ = fmt.Fprintf(s.Out, "Error: %s\n", scriptErr.Message)
			return &ReportedError{Err: err}
		}
		return err
	}

	if c.output != "" {
		if err := storage.AtomicWriteFile(c.output, []byte(result+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		_, _ = fmt.Fprintln(s.Out, result)
	}

	if c.stats {
		_, _ = fmt.Fprintf(s.Err, "mode=%s input=%d output=%d elapsed=%s\n",
			dir, uniseg.GraphemeClusterCount(input), uniseg.GraphemeClusterCount(result),
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// readInput takes text from args, -file or a piped stdin, in that order.
func (c *ConvertCommand) readInput(args []string, stdin io.Reader) (string, error) {
	switch {
	case len(args) > 0 && c.file != "":
		return "", errors.New("use either -file or text arguments, not both")
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case c.file != "":
		return textio.ReadFile(c.file)
	case stdin == nil || c.isTerminal(stdin):
		return "", errors.New("no input: pass text arguments, -file, or pipe text on stdin")
	default:
		text, err := textio.Decode(stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r"), nil
	}
}

func (c *ConvertCommand) prepare(dir transcode.Direction, text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if c.collapse {
		text = textio.Collapse(text)
	}
	if c.normalize && dir == transcode.UnicodeToAscii {
		text = textio.NormalizeNFC(text)
	}
	return text
}

func (c *ConvertCommand) convertOne(ctx context.Context, b *sanka.Bridge, dir transcode.Direction, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return b.Convert(ctx, dir, c.prepare(dir, text))
}

// convertLines converts line by line, stopping at the first failure.
func (c *ConvertCommand) convertLines(ctx context.Context, b *sanka.Bridge, dir transcode.Direction, text string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		converted, err := c.convertOne(ctx, b, dir, line)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, converted)
	}
	return strings.Join(out, "\n"), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
