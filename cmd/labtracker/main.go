package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/config"
	httpapi "go-lab-sample-tracker/internal/http"
	"go-lab-sample-tracker/internal/logging"
)

var version = "dev"

var (
	verbose bool

	cfg      config.Config
	settings config.LabSettings
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "labtracker",
	Short: "Laboratory sample tracking and reporting service",
	Long: `labtracker records monitoring shifts and the air, lead and bulk samples
collected on them, walks each shift through sampling, lab submission, analysis
and report approval, and renders shift reports, fibre identification reports
and lead chain of custody documents.

Configuration is read from APP_* environment variables and the env files under
/etc/lab-tracker; lab rules come from the YAML file named by
APP_LAB_SETTINGS_FILE.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.FromEnv()
		var err error
		logger, err = logging.New(cfg.LogDevelopment, verbose)
		if err != nil {
			return err
		}
		settings, err = config.LoadLabSettings(cfg.LabSettingsFile)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and dashboard",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, reportCmd, nextSampleCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv, err := httpapi.NewServer(cfg, settings, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.String("version", version), zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
