package main

import (
	"context"
	"database/sql"
	"expvar"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/newslyhq/newsly/config"
	"github.com/newslyhq/newsly/internal/cors"
	"github.com/newslyhq/newsly/internal/data"
	"github.com/newslyhq/newsly/internal/jsonlog"
	"github.com/newslyhq/newsly/internal/mailer"
	"github.com/newslyhq/newsly/internal/ratelimit"
	"github.com/newslyhq/newsly/internal/storage"
	"github.com/newslyhq/newsly/internal/upload"
)

const version = "1.0.0"

// The application struct holds the dependencies for our HTTP handlers,
// helpers and middleware. The policy components (limiter, cors, storage,
// mailer) are resolved once here and are read-only afterwards.
type application struct {
	config  config.Config
	logger  *jsonlog.Logger
	models  data.Models
	storage storage.Target
	mailer  mailer.Transport
	limiter *ratelimit.Limiter
	cors    cors.Policy
	cache   *ttlcache.Cache[string, int64]
	wg      sync.WaitGroup
}

func main() {
	// The deployment shares one env file between services; missing is fine,
	// the real environment always wins.
	godotenv.Load()

	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	cfg, err := config.Load(config.Environ())
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	if cfg.Debug {
		logger = jsonlog.New(os.Stdout, jsonlog.LevelDebug)
	}

	// Open database connection
	db, err := openDB(cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	defer db.Close()
	logger.PrintInfo("database connection pool established", nil)

	// Resolve the storage and mail backends. Both fail fast on incomplete
	// settings but perform no network I/O until first use.
	store, err := storage.Resolve(cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	transport, err := mailer.Resolve(cfg, logger)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	objectStore := "local"
	if cfg.Storage.UseS3 {
		objectStore = "s3"
	}
	logger.PrintDebug("policy backends resolved", map[string]string{
		"mail_backend":       cfg.Email.Backend,
		"object_store":       objectStore,
		"authenticated_rate": cfg.Limiter.Authenticated.String(),
		"anonymous_rate":     cfg.Limiter.Anonymous.String(),
	})

	limiter := ratelimit.New(
		ratelimit.Class(cfg.Limiter.Authenticated),
		ratelimit.Class(cfg.Limiter.Anonymous),
	)

	// In-memory cache for token lookups, so the rate limiter's identity
	// check doesn't hit the database on every request.
	cache := ttlcache.New(ttlcache.WithTTL[string, int64](5 * time.Minute))
	go cache.Start()

	// Publish runtime metrics in the expvar handler.
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("database", expvar.Func(func() any {
		return db.Stats()
	}))
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	app := &application{
		config:  cfg,
		logger:  logger,
		models:  *data.NewModels(db),
		storage: store,
		mailer:  transport,
		limiter: limiter,
		cors:    cors.New(cfg.Cors.AllowedOrigins),
		cache:   cache,
	}

	// Start the HTTP server
	err = app.serve()
	if err != nil {
		app.logger.PrintFatal(err, nil)
	}
}

// uploadRules returns the configured upload constraints.
func (app *application) uploadRules() upload.Rules {
	return upload.Rules{
		MaxFileSize:       app.config.Upload.MaxFileSize,
		AllowedExtensions: app.config.Upload.AllowedExtensions,
	}
}

// openDB configures a PostgreSQL database connection pool.
func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	duration, err := time.ParseDuration(cfg.Database.MaxIdleTime)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxIdleTime(duration)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}
	return db, nil
}
