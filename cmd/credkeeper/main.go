package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/caasmo/credkeeper"
	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/core"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/db/zombiezen"
	"github.com/caasmo/credkeeper/migrations"
	"github.com/caasmo/credkeeper/queue/handlers"
)

func loadConfig(path, ageKeyPath string) (*config.Config, error) {
	if path == "" {
		return config.NewDefaultConfig(), nil
	}
	if ageKeyPath != "" {
		return config.LoadEncrypted(path, ageKeyPath)
	}
	return config.Load(path)
}

func migrate(dbPath string) error {
	conn, err := zombiezen.NewConn(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	return zombiezen.ApplyMigrations(conn, migrations.Schema())
}

// scheduleBackup inserts the recurrent database backup job. A unique
// constraint on recurrent job types makes re-insertion on restart a no-op.
func scheduleBackup(cfg *config.Config, app *core.App) error {
	if cfg.Backup.Interval.Duration <= 0 {
		return nil
	}
	err := app.DbQueue().InsertJob(db.Job{
		JobType:   handlers.JobTypeBackupLocal,
		Recurrent: true,
		Interval:  cfg.Backup.Interval.Duration,
	})
	if errors.Is(err, db.ErrConstraintUnique) {
		return nil
	}
	return err
}

func run() error {
	configPath := flag.String("config", "", "path to TOML config file (defaults apply when empty)")
	ageKeyPath := flag.String("age-key", "", "path to age identity file for encrypted configs")
	dbPath := flag.String("dbfile", "", "path to SQLite database (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *ageKeyPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dbPath != "" {
		cfg.DBFile = *dbPath
	}
	if cfg.DBFile == "" {
		return fmt.Errorf("no database file configured, set db_file or pass -dbfile")
	}

	if err := migrate(cfg.DBFile); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	pool, err := credkeeper.NewZombiezenPool(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	opts := []core.Option{
		credkeeper.WithDbZombiezen(pool),
		credkeeper.WithRouterServeMux(),
		credkeeper.WithCacheRistretto(),
		credkeeper.WithPhusLogger(nil),
	}
	if cfg.Storage.Bucket != "" {
		opts = append(opts, credkeeper.WithStorageS3(context.Background(), cfg.Storage))
	}

	app, srv, err := credkeeper.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	if err := scheduleBackup(cfg, app); err != nil {
		return fmt.Errorf("schedule backup job: %w", err)
	}

	srv.Run()
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
