// Sds011-exporter serves SDS011 particulate measurements over HTTP.
//
// It keeps a session open to the sensor, consumes its measurement
// stream, and exposes the latest reading as Prometheus metrics on
// /metrics and as JSON on /json.
//
// Usage:
//
//	sds011-exporter --config /etc/sds011/config.yaml
//	sds011-exporter --device /dev/ttyUSB0 --listen :9110
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finehaze/sds011/internal/config"
	"github.com/finehaze/sds011/internal/exporter"
	"github.com/finehaze/sds011/internal/logging"
	"github.com/finehaze/sds011/internal/sensor"
	"github.com/finehaze/sds011/internal/version"
)

var (
	configPath string
	flagDevice string
	flagListen string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sds011-exporter",
	Short:   "Prometheus exporter for SDS011 particulate sensors",
	Version: version.Version,
	RunE:    run,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.Flags().StringVar(&flagDevice, "device", "", "Serial port, overrides the config file")
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address, overrides the config file")
}

func run(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("device") {
		cfg.Device = flagDevice
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = flagListen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := sensor.Open(cfg.Device, cfg.Baud, sensor.Options{
		Timeout:  time.Duration(cfg.Timeout),
		Attempts: cfg.Attempts,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	configureSensor(ctx, session, cfg, log)

	exp := exporter.New(session, time.Duration(cfg.StaleAfter), log)

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: exp.Handler(),
	}

	runErr := make(chan error, 1)
	go func() { runErr <- exp.Run(ctx) }()
	go func() {
		log.Info("listening", zap.String("addr", cfg.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- err
		}
	}()

	var cause error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case cause = <-runErr:
		if errors.Is(cause, context.Canceled) {
			cause = nil
		}
		if cause != nil {
			log.Error("exporter failed", zap.Error(cause))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	return cause
}

// configureSensor pushes the configured working period and reporting
// mode to the device. Failures are logged but not fatal: the exporter
// still serves whatever the sensor sends.
func configureSensor(ctx context.Context, s *sensor.Session, cfg config.Config, log *zap.Logger) {
	if err := s.SetWorkMode(ctx, sensor.WorkWorking); err != nil {
		log.Warn("could not wake sensor", zap.Error(err))
	}
	if err := s.SetWorkingPeriod(ctx, cfg.WorkingPeriod); err != nil {
		log.Warn("could not set working period", zap.Error(err))
	}
	mode, err := sensor.ParseReportingMode(cfg.ReportingMode)
	if err == nil {
		err = s.SetReportingMode(ctx, mode)
	}
	if err != nil {
		log.Warn("could not set reporting mode", zap.Error(err))
	}
}
