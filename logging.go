package main

import (
	"io"
	"log/slog"
	"os"
)

// setupLogger initializes the structured logger. When WRTBOT_LOG_FILE is
// set, log lines are mirrored to that file as well as stdout.
func setupLogger() func() {
	var out io.Writer = os.Stdout
	var logFile *os.File

	if path := os.Getenv("WRTBOT_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			slog.Error("persistent logging disabled: cannot open log file", "file", path, "err", err)
		} else {
			logFile = f
			out = io.MultiWriter(os.Stdout, f)
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler).With("app", "wrtbot"))

	return func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}
}
