package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/library-api/book"
	"github.com/marcelsud/library-api/docs"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const DefaultPrefix = "/books"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// Prefix the book routes are mounted under, DefaultPrefix when empty
	Prefix string
	// Health is pinged by GET /health; nil always reports healthy
	Health Pinger
	// Metrics serves GET /metrics when set
	Metrics http.Handler
}

func Handlers(ctx context.Context, logger zerolog.Logger, bookService book.UseCase, opts Options) *chi.Mux {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	docs.SwaggerInfo.BasePath = prefix

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Method(http.MethodGet, prefix, getBooks(bookService))
	r.Method(http.MethodGet, prefix+"/{isbn}", getBook(bookService))
	r.Method(http.MethodPost, prefix, postBooks(bookService))
	r.Method(http.MethodPut, prefix+"/{isbn}", putBook(bookService))
	r.Method(http.MethodDelete, prefix+"/{isbn}", deleteBook(bookService))

	r.Get("/health", health(opts.Health))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Get("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api-docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/api-docs/*", httpSwagger.Handler(httpSwagger.URL("/api-docs/doc.json")))

	return r
}

func health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				oplog := httplog.LogEntry(r.Context())
				oplog.Warn().Err(err).Msg("store ping failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
