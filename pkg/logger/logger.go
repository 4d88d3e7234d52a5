// Package logger provides structured logging for the extraction pipeline,
// routing the two warning kinds the pipeline can raise (unknown source
// scheme, unknown option name) through a configurable, colorable logger
// instead of discarding them.
package logger

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

func argsToLoggerArgs(args ...any) []pterm.LoggerArgument {
	if len(args) == 0 {
		return nil
	}

	loggerArgs := make([]pterm.LoggerArgument, 0, len(args)/2)

	for i := 0; i+1 < len(args); i += 2 {
		loggerArgs = append(loggerArgs, pterm.LoggerArgument{
			Key:   fmt.Sprintf("%v", args[i]),
			Value: args[i+1],
		})
	}

	return loggerArgs
}

var (
	ptermLogger = pterm.DefaultLogger.
			WithLevel(pterm.LogLevelInfo).
			WithCaller(false).
			WithTime(true).
			WithKeyStyles(map[string]pterm.Style{
			"path":     *pterm.NewStyle(pterm.FgLightBlue),
			"scheme":   *pterm.NewStyle(pterm.FgCyan),
			"option":   *pterm.NewStyle(pterm.FgCyan),
			"pkgbase":  *pterm.NewStyle(pterm.FgGreen),
			"count":    *pterm.NewStyle(pterm.FgBlue),
			"expected": *pterm.NewStyle(pterm.FgBlue),
		})
	verboseEnabled = false
	colorDisabled  = false
)

// Logger is the global structured logger used by every package in the pipeline.
var Logger = &PipelineLogger{ptermLogger: ptermLogger}

// PipelineLogger wraps a pterm logger with the pipeline's level/verbosity rules.
type PipelineLogger struct {
	ptermLogger *pterm.Logger
}

// Info logs an informational message.
func (l *PipelineLogger) Info(msg string, args ...any) {
	l.ptermLogger.Info(msg, argsToLoggerArgs(args...))
}

// Debug logs a debug message; suppressed unless verbose mode is enabled.
func (l *PipelineLogger) Debug(msg string, args ...any) {
	if !verboseEnabled {
		return
	}

	l.ptermLogger.Debug(msg, argsToLoggerArgs(args...))
}

// Warn logs a warning-severity message. The pipeline's Unknown-scheme and
// Unknown-option conditions are always routed here, never silently dropped.
func (l *PipelineLogger) Warn(msg string, args ...any) {
	l.ptermLogger.Warn(msg, argsToLoggerArgs(args...))
}

// Error logs an error-severity message.
func (l *PipelineLogger) Error(msg string, args ...any) {
	l.ptermLogger.Error(msg, argsToLoggerArgs(args...))
}

// SetVerbose toggles debug-level output.
func SetVerbose(verbose bool) {
	verboseEnabled = verbose
	if verbose {
		ptermLogger = ptermLogger.WithLevel(pterm.LogLevelTrace)
	} else {
		ptermLogger = ptermLogger.WithLevel(pterm.LogLevelInfo)
	}

	Logger.ptermLogger = ptermLogger
}

// IsColorDisabled reports whether color output should be suppressed, honoring
// NO_COLOR and a dumb terminal the way most CLI tooling does.
func IsColorDisabled() bool {
	if colorDisabled {
		return true
	}

	if os.Getenv("NO_COLOR") != "" {
		return true
	}

	return os.Getenv("TERM") == "dumb"
}

// SetColorDisabled force-enables or force-disables color output.
func SetColorDisabled(disabled bool) {
	colorDisabled = disabled

	if disabled {
		pterm.DisableColor()
	} else {
		pterm.EnableColor()
	}
}

// Debug logs with the global logger.
func Debug(msg string, args ...any) { Logger.Debug(msg, args...) }

// Info logs with the global logger.
func Info(msg string, args ...any) { Logger.Info(msg, args...) }

// Warn logs with the global logger.
func Warn(msg string, args ...any) { Logger.Warn(msg, args...) }

// Error logs with the global logger.
func Error(msg string, args ...any) { Logger.Error(msg, args...) }
