package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"golang.org/x/term"

	"github.com/creatures/console/internal/bridge"
	"github.com/creatures/console/internal/queue"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".log"), nil
}

// setupLog sends diagnostics to a file in the user cache dir so they never
// mix with command output.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	log.SetLevel(log.InfoLevel)
	log.SetReportTimestamp(true)
	return f.Close, nil
}

// newOutputLogger returns the logger commands print their results with.
// Piped output gets logfmt instead of colored text.
func newOutputLogger(w *os.File, prefix string) *log.Logger {
	formatter := log.TextFormatter
	if !term.IsTerminal(int(w.Fd())) {
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:    prefix,
		Formatter: formatter,
		Level:     log.DebugLevel,
	})
}

// serverLevel maps a creature server level name onto a log level.
func serverLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error", "err":
		return log.ErrorLevel
	case "critical", "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func bridgeObserver(name string) func(bridge.Event) {
	l := log.WithPrefix(name)
	return func(ev bridge.Event) {
		switch ev.Kind {
		case bridge.EventSourceEnded:
			if ev.Err != nil {
				l.Error("Source failed", "err", ev.Err)
				return
			}
			l.Debug("Source ended")
		case bridge.EventHandlerFailed:
			l.Error("Handler failed", "err", ev.Err)
		case bridge.EventFinished:
			l.Info("Bridge finished", "handled", ev.Handled, "discarded", ev.Discarded)
		default:
			l.Debug("Bridge event", "kind", ev.Kind)
		}
	}
}

func queueObserver(name string) func(queue.Event) {
	l := log.WithPrefix(name)
	return func(ev queue.Event) {
		switch ev.Kind {
		case queue.EventDropped:
			l.Warn("Event dropped after cancel")
		case queue.EventCancelled:
			l.Debug("Queue cancelled", "depth", ev.Depth, "discarded", ev.Discarded)
		}
	}
}
