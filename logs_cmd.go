package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/creatures/console/internal/bridge"
	"github.com/creatures/console/internal/server"
	"github.com/creatures/console/internal/store"
)

var (
	archiveLogs bool
	tailLogs    int

	logsCmd = &cobra.Command{
		Use:   "logs",
		Short: "Stream the creature server log",
		Long: paragraph(fmt.Sprintf("\n%s the creature server's log as it happens. With --archive every line is also kept in the local store.",
			keyword("Follow"))),
		Example: paragraph("creature-console logs\ncreature-console logs --archive --tail 50"),
		Args:    cobra.NoArgs,
		RunE:    runLogs,
	}
)

func init() {
	logsCmd.Flags().BoolVarP(&archiveLogs, "archive", "a", false, "keep every received line in the local store")
	logsCmd.Flags().IntVarP(&tailLogs, "tail", "n", 0, "print the last N archived lines before following")
}

// signalContext is cancelled on the first interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runLogs(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := newOutputLogger(os.Stdout, "")

	var st *store.Store
	if archiveLogs || tailLogs > 0 {
		var err error
		if st, err = store.Open(cfg.StorePath); err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
	}

	if tailLogs > 0 {
		recs, err := st.RecentLogs(ctx, tailLogs)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			printLogLine(out, server.LogLine{
				Level:      rec.Level,
				Message:    rec.Message,
				LoggerName: rec.LoggerName,
				ThreadID:   rec.ThreadID,
			}, rec.LoggedAt.Format("15:04:05.000"))
		}
	}

	stream := server.NewLogStream(cfg.WebsocketURL(),
		server.WithHandshakeTimeout(cfg.DialTimeout),
		server.WithBadFrameHandler(func(err error) {
			log.Warn("Skipping unreadable frame", "err", err)
		}),
	)

	b := bridge.New[server.LogLine](stream,
		bridge.WithObserver(bridgeObserver("logs")),
		bridge.WithQueueObserver(queueObserver("logs")),
	)

	log.Info("Following server log", "url", cfg.WebsocketURL(), "archive", archiveLogs)
	err := b.Run(ctx, func(line server.LogLine) error {
		at := line.Time()
		printLogLine(out, line, at.Format("15:04:05.000"))
		if !archiveLogs {
			return nil
		}
		return st.AppendLog(ctx, store.LogRecord{
			Level:      line.Level,
			LoggerName: line.LoggerName,
			Message:    line.Message,
			ThreadID:   line.ThreadID,
			LoggedAt:   at,
		})
	})
	if errors.Is(err, bridge.ErrUpstream) {
		return fmt.Errorf("lost connection to %s: %w", cfg.WebsocketURL(), err)
	}
	return err
}

func printLogLine(out *log.Logger, line server.LogLine, at string) {
	kv := []any{"at", at}
	if line.LoggerName != "" {
		kv = append(kv, "logger", line.LoggerName)
	}
	if line.ThreadID != 0 {
		kv = append(kv, "thread", line.ThreadID)
	}
	out.Log(serverLevel(line.Level), line.Message, kv...)
}
