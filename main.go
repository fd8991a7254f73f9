package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/nysetime/exchange"
	"github.com/dnldd/nysetime/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

// report logs the session status of the provided time.
func report(logger *zerolog.Logger, windows *exchange.Windows, now time.Time) {
	logger.Info().
		Bool("winter", windows.IsWinterTime(now)).
		Bool("exchangeOpen", windows.IsExchangeOpen(now)).
		Bool("preMarketUsa", windows.IsPreMarketUsa(now)).
		Bool("usaOpen", windows.IsUsaOpen(now)).
		Bool("postMarketUsa", windows.IsPostMarketUsa(now)).
		Str("session", windows.SessionAt(now).String()).
		Time("nextOpen", windows.NextOpen()).
		Msgf("exchange status at %s", now.Format(time.RFC3339))
}

// run builds the session windows and either reports the current status or
// monitors session transitions until cancelled.
func run(ctx context.Context, cfg *Config, logger *zerolog.Logger) error {
	loc, err := cfg.LoadLocation()
	if err != nil {
		return err
	}

	now := func() time.Time {
		return time.Now().In(loc)
	}

	table, err := exchange.NewBoundaryTable(cfg.Options())
	if err != nil {
		return fmt.Errorf("creating boundary table: %w", err)
	}

	seasonLogger := logger.With().Str("component", "season").Logger()
	season := exchange.NewSeasonCalculator(&exchange.SeasonConfig{
		Now:    now,
		Logger: &seasonLogger,
	})

	windowsLogger := logger.With().Str("component", "windows").Logger()
	windows, err := exchange.NewWindows(&exchange.WindowsConfig{
		Boundaries: table,
		Season:     season,
		Now:        now,
		Logger:     &windowsLogger,
	})
	if err != nil {
		return fmt.Errorf("creating session windows: %w", err)
	}

	if !cfg.Watch {
		report(logger, windows, now())
		return nil
	}

	monitorLogger := logger.With().Str("component", "monitor").Logger()
	monitor, err := service.NewMonitor(&service.MonitorConfig{
		Windows:  windows,
		Interval: time.Duration(cfg.Interval) * time.Second,
		Location: loc,
		Now:      now,
		Notify: func(transition service.Transition) {
			report(logger, windows, transition.At)
		},
		Logger: &monitorLogger,
	})
	if err != nil {
		return fmt.Errorf("creating session monitor: %w", err)
	}

	return monitor.Run(ctx)
}

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := log.With().Str("service", "nysetime").Logger()

	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		logger.Error().Msgf("loading config: %v", err)
		os.Exit(1)
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	logger.Debug().Msgf("loaded config: %s", spew.Sdump(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleTermination(ctx, cancel)

	err = run(ctx, &cfg, &logger)
	if err != nil {
		logger.Error().Msgf("running: %v", err)
		cancel()
		os.Exit(1)
	}
}
