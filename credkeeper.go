// Package credkeeper assembles the identity service: database, router,
// cache, object storage, job scheduler and HTTP server, wired from a single
// configuration.
package credkeeper

import (
	"log/slog"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/core"
	"github.com/caasmo/credkeeper/core/prerouter"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/mail"
	"github.com/caasmo/credkeeper/queue"
	"github.com/caasmo/credkeeper/queue/executor"
	"github.com/caasmo/credkeeper/queue/handlers"
	scl "github.com/caasmo/credkeeper/queue/scheduler"
	"github.com/caasmo/credkeeper/server"
)

// New builds the App and Server from an already loaded configuration and the
// provided options. Options select the concrete database, router, cache,
// logger and storage implementations.
func New(cfg *config.Config, opts ...core.Option) (*core.App, *server.Server, error) {
	configProvider := config.NewProvider(cfg)

	allOpts := []core.Option{core.WithConfigProvider(configProvider)}
	allOpts = append(allOpts, opts...)

	app, err := core.NewApp(allOpts...)
	if err != nil {
		return nil, nil, err
	}

	route(app)

	// Requests pass the pre-router chain before reaching the router:
	// logging first, then IP blocking.
	handler := prerouter.NewRequestLog(app).Execute(
		prerouter.NewBlockIp(app).Execute(app.Router()))

	scheduler, err := setupScheduler(configProvider, app.DbIdentity(), app.DbQueue(), app.Logger())
	if err != nil {
		return nil, nil, err
	}

	srv := server.NewServer(cfg.Server, handler, scheduler, app.Logger())

	return app, srv, nil
}

// setupScheduler builds the job scheduler. Email handlers are registered
// only when SMTP is enabled; the backup handler is always available.
func setupScheduler(provider *config.Provider, dbi db.DbIdentity, dbq db.DbQueue, logger *slog.Logger) (*scl.Scheduler, error) {
	hdls := make(map[string]executor.JobHandler)

	cfg := provider.Get()

	if cfg.Smtp.Enabled {
		mailer, err := mail.New(provider)
		if err != nil {
			return nil, err
		}

		hdls[queue.JobTypeEmailVerification] = handlers.NewEmailVerificationHandler(dbi, provider, mailer, logger)
		hdls[queue.JobTypePasswordReset] = handlers.NewPasswordResetHandler(dbi, provider, mailer, logger)
		hdls[queue.JobTypeWelcome] = handlers.NewWelcomeHandler(provider, mailer, logger)
	}

	hdls[handlers.JobTypeBackupLocal] = handlers.NewBackupHandler(provider, logger)

	return scl.NewScheduler(cfg.Scheduler, dbq, executor.NewExecutor(hdls), logger), nil
}
