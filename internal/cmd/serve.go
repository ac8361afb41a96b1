package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/searchtrail/searchtrail/internal/config"
	"github.com/searchtrail/searchtrail/internal/server"
	"github.com/searchtrail/searchtrail/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion daemon",
	Long: `Start the HTTP listener and log incoming search events to the
configured note. Edits to the settings file are picked up live: write
settings are applied immediately, a changed port triggers a rebind with
rollback to the previous port on failure.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(settings)

	srv := server.New(logger)
	if err := srv.Start(settings); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Stop()

	fmt.Fprintf(os.Stdout, "\n  searchtrail v%s\n  → http://%s/log\n  → note: %s (%s)\n\n",
		version, settings.ListenAddr(), settings.NotePath(), modeName(settings.Prepend))

	if settingsFile := viper.ConfigFileUsed(); settingsFile != "" {
		w := watcher.New(settingsFile, func() {
			reload(srv, logger)
		}, logger)
		if err := w.Start(); err != nil {
			logger.Warn("settings watcher unavailable, hot reload disabled", "error", err)
		} else {
			defer w.Stop()
		}
	} else {
		logger.Info("no settings file in use, hot reload disabled")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	return nil
}

// reload re-reads the settings file and applies it to the running
// server. Bad content or a failed rebind keeps the last good settings
// in force; the daemon never goes down over an edit.
func reload(srv *server.Server, logger *slog.Logger) {
	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("settings file unreadable, keeping current settings", "error", err)
		return
	}
	settings, err := config.FromViper(viper.GetViper())
	if err != nil {
		logger.Warn("settings file invalid, keeping current settings", "error", err)
		return
	}
	if err := srv.Apply(settings); err != nil {
		if server.IsAddrInUse(err) {
			logger.Warn("new port is already in use, still listening on the old port",
				"port", settings.Port)
			return
		}
		logger.Warn("settings not applied", "error", err)
		return
	}
	logger.Info("settings applied",
		"addr", srv.Settings().ListenAddr(),
		"note", srv.Settings().NotePath(),
		"mode", modeName(srv.Settings().Prepend))
}

// newLogger builds the process logger: text or JSON to stdout, teed
// into a rotating file when log_dir is set.
func newLogger(settings config.Settings) *slog.Logger {
	var logWriter io.Writer = os.Stdout
	if settings.LogDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(settings.LogDir, "searchtrail.log"),
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		logWriter = io.MultiWriter(os.Stdout, rotator)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if settings.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(logWriter, opts))
	}
	return slog.New(slog.NewTextHandler(logWriter, opts))
}

func modeName(prepend bool) string {
	if prepend {
		return "prepend"
	}
	return "append"
}
