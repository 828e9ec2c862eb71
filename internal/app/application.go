package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/commentlens/internal/analyzer"
	"github.com/raysh454/commentlens/internal/cache"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/metrics"
	"github.com/raysh454/commentlens/internal/poller"
	"github.com/raysh454/commentlens/internal/relay"
	"github.com/raysh454/commentlens/internal/server"
	"github.com/raysh454/commentlens/internal/webclient"
)

// Application is the global runtime state container. It owns every
// long-lived component so the binaries only parse flags and call in.
type Application struct {
	Config *Config
	Logger logging.Logger

	Metrics   *metrics.Metrics
	WebClient webclient.WebClient
	Analyzer  *analyzer.Client
	Scheduler *poller.Scheduler
	Cache     cache.Cache
	Relay     *relay.Relay
}

// NewApplication builds the pipeline described by cfg. logger may be nil.
func NewApplication(ctx context.Context, cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Application{Config: cfg, Logger: logger, Metrics: metrics.New()}

	wc, err := webclient.NewWebClient(cfg.WebClient, logger)
	if err != nil {
		return nil, fmt.Errorf("creating web client: %w", err)
	}
	a.WebClient = wc

	a.Analyzer, err = analyzer.NewClient(cfg.Analyzer, wc, logger)
	if err != nil {
		_ = wc.Close()
		return nil, fmt.Errorf("creating analyzer client: %w", err)
	}

	a.Scheduler, err = poller.NewScheduler(a.Analyzer, cfg.Poll, logger, a.Metrics)
	if err != nil {
		_ = a.Analyzer.Close()
		return nil, fmt.Errorf("creating poll scheduler: %w", err)
	}

	a.Cache, err = cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		_ = a.Analyzer.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	a.Relay = relay.New(a.Scheduler, a.Cache, logger, a.Metrics)

	logger.Info("application ready",
		logging.Field{Key: "analyzer", Value: cfg.Analyzer.BaseURL},
		logging.Field{Key: "cache", Value: string(cfg.Cache.Backend)},
		logging.Field{Key: "poll_interval", Value: cfg.Poll.Interval.String()})
	return a, nil
}

// Server builds the relay HTTP server.
func (a *Application) Server() (*server.Server, error) {
	return server.NewServer(a.Config.Server, a.Relay, a.Metrics, a.Logger)
}

// Shutdown stops polling and releases the cache and HTTP client.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	done := make(chan error, 1)
	go func() {
		var errs []error
		if a.Relay != nil {
			errs = append(errs, a.Relay.Close())
		}
		if a.Cache != nil {
			errs = append(errs, a.Cache.Close())
		}
		if a.Analyzer != nil {
			errs = append(errs, a.Analyzer.Close())
		}
		done <- errors.Join(errs...)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown: %w", shutdownCtx.Err())
	}
}
