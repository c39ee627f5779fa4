package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeycumines/nudi/internal/command"
	"github.com/joeycumines/nudi/internal/config"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], command.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	cancel()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless flag parsing or the command already did.
func reportError(w io.Writer, err error) {
	var reported *command.ReportedError
	if errors.Is(err, flag.ErrHelp) || errors.As(err, &reported) {
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

func run(ctx context.Context, args []string, s command.Streams) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		_, _ = fmt.Fprintf(s.Err, "Warning: cannot locate config file: %v\n", err)
	}
	cfg := config.NewConfig()
	if configPath != "" {
		if loaded, err := config.LoadFromPath(configPath); err != nil {
			_, _ = fmt.Fprintf(s.Err, "Warning: %v\n", err)
		} else {
			cfg = loaded
		}
	}

	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, configPath))
	registry.Register(command.NewInitCommand(configPath))
	registry.Register(command.NewConvertCommand(cfg))
	registry.Register(command.NewCheckCommand(cfg))

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return helpCmd.Execute(ctx, nil, s)
	}

	cmd, err := registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(s.Err, "Unknown command: %s\n", args[0])
		_, _ = fmt.Fprintln(s.Err, "Use 'nudi help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(s.Err)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(s.Err, "Usage: nudi %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(s.Err, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(s.Err, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	return cmd.Execute(ctx, fs.Args(), s)
}
