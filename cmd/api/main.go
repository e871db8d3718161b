package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/library-api/book"
	"github.com/marcelsud/library-api/config"
	"github.com/marcelsud/library-api/internal/http/chi"
	"github.com/marcelsud/library-api/internal/store"
	"github.com/marcelsud/library-api/metrics"
)

const TIMEOUT = 30 * time.Second

/* main wires everything: config, store, service, metrics and the router.
 * Imports only go one way, down: the app imports the business layer,
 * which imports the storage layer.
 */

// @title Library API
// @version 1.0
// @description CRUD over book records backed by a document store.
// @BasePath /books
func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		return
	}
	logger := httplog.NewLogger("library-api", httplog.Options{
		JSON:     cfg.LogJSON,
		LogLevel: cfg.LogLevel,
		Concise:  !cfg.LogJSON,
	})
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	repo, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("opening store")
		return
	}
	collector := metrics.NewStoreCollector(repo, cfg.StoreDriver)
	if m, err := collector.Collect(ctx); err != nil {
		logger.Warn().Err(err).Msg("collecting store metrics")
	} else {
		logger.Info().Str("driver", m.Driver).Int64("books", m.BooksStored).Msg("store ready")
	}
	exporter, err := metrics.NewOTelExporter(collector, nil)
	if err != nil {
		logger.Error().Err(err).Msg("starting metrics exporter")
		_ = repo.Close(context.Background())
		return
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("closing store")
		}
		if err := exporter.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutting down metrics exporter")
		}
	}()

	s := book.NewService(repo)
	r := chi.Handlers(ctx, logger, s, chi.Options{
		Prefix:  cfg.RoutesPrefix,
		Health:  repo,
		Metrics: exporter.Handler(),
	})
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().
		Str("port", cfg.Port).
		Str("driver", cfg.StoreDriver).
		Str("prefix", cfg.RoutesPrefix).
		Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("serving http")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down server")
		return
	}
	logger.Info().Msg("server stopped")
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	default:
		errShutdown <- fmt.Errorf("shutting down server: %w", err)
	}
}
