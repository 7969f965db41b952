package credkeeper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/caasmo/credkeeper/cache/ristretto"
	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/core"
	"github.com/caasmo/credkeeper/db/zombiezen"
	"github.com/caasmo/credkeeper/router/httprouter"
	"github.com/caasmo/credkeeper/router/servemux"
	"github.com/caasmo/credkeeper/storage/s3"
	phuslog "github.com/phuslu/log"
	"zombiezen.com/go/sqlite/sqlitex"
)

// NewZombiezenPool creates a SQLite connection pool with the default flags
// (read-write, create, WAL). If your application accesses the database
// alongside the app, share a single pool to avoid SQLITE_BUSY.
func NewZombiezenPool(dbPath string) (*sqlitex.Pool, error) {
	pool, err := sqlitex.NewPool(fmt.Sprintf("file:%s", dbPath), sqlitex.PoolOptions{
		PoolSize: runtime.NumCPU(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create zombiezen pool at %s: %w", dbPath, err)
	}
	return pool, nil
}

// WithDbZombiezen configures the App to use the Zombiezen SQLite
// implementation with an existing pool. The caller owns the pool lifecycle.
func WithDbZombiezen(pool *sqlitex.Pool) core.Option {
	dbInstance, err := zombiezen.New(pool)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize zombiezen db: %v", err))
	}
	return core.WithDb(dbInstance)
}

func WithRouterServeMux() core.Option {
	return core.WithRouter(servemux.New())
}

func WithRouterHttprouter() core.Option {
	return core.WithRouter(httprouter.New())
}

func WithCacheRistretto() core.Option {
	c, err := ristretto.New[interface{}]()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize ristretto cache: %v", err))
	}
	return core.WithCache(c)
}

// WithStorageS3 configures the App with an S3-compatible object store
// built from cfg.
func WithStorageS3(ctx context.Context, cfg config.Storage) core.Option {
	store, err := s3.New(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize s3 storage: %v", err))
	}
	return core.WithStorage(store)
}

// DefaultLoggerOptions provides default settings for slog handlers:
// debug level, time attribute removed.
var DefaultLoggerOptions = &slog.HandlerOptions{
	Level: slog.LevelDebug,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	},
}

// WithPhusLogger configures slog with phuslu/log's JSON handler.
// Uses DefaultLoggerOptions if opts is nil.
func WithPhusLogger(opts *slog.HandlerOptions) core.Option {
	if opts == nil {
		opts = DefaultLoggerOptions
	}
	logger := slog.New(phuslog.SlogNewJSONHandler(os.Stderr, opts))
	return core.WithLogger(logger)
}

// WithTextLogger configures slog with the standard library's text handler.
func WithTextLogger(opts *slog.HandlerOptions) core.Option {
	if opts == nil {
		opts = DefaultLoggerOptions
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	return core.WithLogger(logger)
}
