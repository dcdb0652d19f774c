package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/example/jobportal/internal/platform/auth"
	"github.com/example/jobportal/internal/platform/config"
	"github.com/example/jobportal/internal/platform/db"
	"github.com/example/jobportal/internal/platform/httpserver"
	"github.com/example/jobportal/internal/platform/logging"
	"github.com/example/jobportal/internal/platform/run"
	"github.com/example/jobportal/services/blog/internal/events"
	"github.com/example/jobportal/services/blog/internal/handlers"
	"github.com/example/jobportal/services/blog/internal/moderation"
	"github.com/example/jobportal/services/blog/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	comments, posts, pool := initStores(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	pub, err := events.New(cfg.NATSURL, log)
	if err != nil {
		log.Error("events publisher init", zap.Error(err))
		run.Exit(1)
	}

	engine := moderation.New(comments, posts)
	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	ready := func() error { return nil }
	if pool != nil {
		ready = func() error { return pool.Ping(context.Background()) }
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: ready})

	// Public read
	r.Get("/v1/posts/{post_id}/comments", handlers.GetCommentTree(engine))

	// Authenticated author routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/posts/{post_id}/comments", handlers.SubmitComment(engine, pub))
		r.Put("/v1/comments/{comment_id}", handlers.EditComment(engine))
		r.Delete("/v1/comments/{comment_id}", handlers.WithdrawComment(engine))

		// Moderator routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireModerator)
			r.Get("/v1/moderation/comments/pending", handlers.PendingComments(engine))
			r.Get("/v1/moderation/comments/approved", handlers.ApprovedComments(engine))
			r.Post("/v1/moderation/comments/{comment_id}/approve", handlers.ApproveComment(engine, pub))
			r.Post("/v1/moderation/comments/{comment_id}/reject", handlers.RejectComment(engine, pub))
			r.Post("/v1/moderation/comments/bulk-approve", handlers.BulkApproveComments(engine))
			r.Post("/v1/moderation/comments/bulk-reject", handlers.BulkRejectComments(engine))
		})
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the persistence backend. In production (APP_ENV=production)
// a working Postgres connection is required and the process terminates
// otherwise; in development it falls back to in-memory stores.
func initStores(cfg config.AppConfig, log *zap.Logger) (store.CommentStore, store.PostStore, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		return store.NewInMemoryCommentStore(), store.NewInMemoryPostStore(), nil
	}

	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return store.NewInMemoryCommentStore(), store.NewInMemoryPostStore(), nil
	}

	log.Info("comment store: postgres")
	return store.NewPostgresCommentStore(pool), store.NewPostgresPostStore(pool), pool
}
