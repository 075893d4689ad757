package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/pagecache"
	"github.com/programme-lv/grader/submfs"
)

type HttpServer struct {
	cfgPath string
	store   *grading.Store
	cache   *pagecache.Cache
	router  *chi.Mux
	stats   *statsLogger

	mu      sync.RWMutex
	cfg     conf.Config
	catalog *submfs.Catalog
}

// NewHttpServer wires the review API. cfgPath is where POST /settings
// persists grading settings.
func NewHttpServer(
	cfg conf.Config,
	cfgPath string,
	catalog *submfs.Catalog,
	store *grading.Store,
	cache *pagecache.Cache,
	log *slog.Logger,
) *HttpServer {
	router := chi.NewRouter()

	reqLogger := httplog.NewLogger("grader", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		MessageFieldName: "message",
	})
	router.Use(httplog.RequestLogger(reqLogger))
	router.Use(requestIDMiddleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           3000,
	}))

	server := &HttpServer{
		cfgPath: cfgPath,
		store:   store,
		cache:   cache,
		router:  router,
		stats:   newStatsLogger(log, time.Minute),
		cfg:     cfg,
		catalog: catalog,
	}
	router.Use(server.stats.middleware)

	server.routes()

	return server
}

func (httpserver *HttpServer) routes() {
	r := httpserver.router
	r.Get("/assignments", httpserver.listAssignments)
	r.Route("/assignments/{assignment}", func(r chi.Router) {
		r.Get("/students", httpserver.listStudents)
		r.Get("/rubric", httpserver.getRubric)
		r.Put("/rubric", httpserver.putRubric)
		r.Route("/students/{student}", func(r chi.Router) {
			r.Get("/marks", httpserver.getMarks)
			r.Post("/marks", httpserver.postMarks)
			r.Get("/points", httpserver.getPoints)
			r.Get("/pages", httpserver.getPages)
		})
	})
	r.Get("/report", httpserver.getReport)
	r.Get("/settings", httpserver.getSettings)
	r.Post("/settings", httpserver.postSettings)
	r.Post("/reload", httpserver.reload)

	prefix := "/" + httpserver.cfg.ImageURLPrefix + "/"
	r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(httpserver.cfg.ImageDir))))
}

func (httpserver *HttpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpserver.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled.
func (httpserver *HttpServer) Start(ctx context.Context, address string) error {
	srv := &http.Server{Addr: address, Handler: httpserver.router}
	defer httpserver.stats.stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close stops background work of the server.
func (httpserver *HttpServer) Close() {
	httpserver.stats.stop()
}

func (httpserver *HttpServer) snapshot() (conf.Config, *submfs.Catalog) {
	httpserver.mu.RLock()
	defer httpserver.mu.RUnlock()
	return httpserver.cfg, httpserver.catalog
}

const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		log := httplog.LogEntry(r.Context())
		ctx := logger.WithLogger(r.Context(), log.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
