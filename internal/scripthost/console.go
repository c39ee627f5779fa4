package scripthost

import (
	"log/slog"

	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

const consoleModule = "nudi:console"

// slogPrinter routes console.log/warn/error to a logger.
type slogPrinter struct {
	logger *slog.Logger
}

func (p slogPrinter) Log(s string)   { p.logger.Info(s) }
func (p slogPrinter) Warn(s string)  { p.logger.Warn(s) }
func (p slogPrinter) Error(s string) { p.logger.Error(s) }

func requireConsole(logger *slog.Logger) require.ModuleLoader {
	return console.RequireWithPrinter(slogPrinter{logger: logger})
}
