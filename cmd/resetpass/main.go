// Command resetpass drives password reset by OTP from a terminal against a
// running dinebook API.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/resetflow"
	"github.com/shandysiswandi/dinebook/internal/resetflow/inbound/terminal"
	"github.com/shandysiswandi/dinebook/internal/resetflow/outbound/api"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to the config file")
	baseURL := flag.String("base-url", "", "API base URL, overrides client.base_url")
	logPath := flag.String("log", "", "log file, empty logs to stderr at warn level")
	flag.Parse()

	if os.Getenv("LOCAL") == "true" {
		//nolint:errcheck // .env is optional
		godotenv.Load()
	}

	cfg, err := config.NewViper(*configPath)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}
	defer cfg.Close()

	logWriter, level, closeLog := logOutput(*logPath, cfg.GetString("client.log_level"))
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ins, err := instrument.New(ctx, &instrument.Config{
		ServiceName: "resetpass",
		MaskFields:  cfg.GetArray("instrument.log_mask_fields"),
		LogWriter:   logWriter,
		LogLevel:    level,
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	defer ins.Shutdown(context.Background())

	url := *baseURL
	if url == "" {
		url = cfg.GetString("client.base_url")
	}

	term := terminal.New(terminal.Config{
		In:  os.Stdin,
		Out: os.Stdout,
		Gateway: api.New(api.Config{
			BaseURL: url,
			Timeout: cfg.GetSecond("client.timeout_seconds"),
			UUID:    uid.NewUUID(),
		}),
		OTPSeconds: cfg.GetInt("client.otp_seconds"),
		NewTicker:  resetflow.NewSystemTicker,
	})

	if err := term.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("terminal stopped", "error", err)
		os.Exit(1)
	}
}

// logOutput keeps log lines off the interactive prompt: a file when given,
// otherwise stderr filtered to warnings.
func logOutput(path, level string) (io.Writer, slog.Level, func()) {
	if path == "" {
		return os.Stderr, max(instrument.ParseLevel(level), slog.LevelWarn), func() {}
	}

	// #nosec G304 -- path comes from the operator.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Error("failed to open log file", "path", path, "error", err)
		os.Exit(1)
	}
	return f, instrument.ParseLevel(level), func() { _ = f.Close() }
}
