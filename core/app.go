package core

import (
	"log/slog"

	"github.com/caasmo/credkeeper/cache"
	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/router"
	"github.com/caasmo/credkeeper/storage"
)

// App is the application wide context.
// db connections and permanent structs should go here.
//
// All handlers and middleware have App as receiver, so a handler can reach
// the database, the object store and the config without extra plumbing.
type App struct {
	dbIdentity     db.DbIdentity
	dbPosts        db.DbPosts
	dbQueue        db.DbQueue
	router         router.Router
	cache          cache.Cache[string, interface{}]
	configProvider *config.Provider
	logger         *slog.Logger
	storage        storage.Store
	authenticator  Authenticator
	validator      Validator
}

// Router returns the application's router instance
func (a *App) Router() router.Router {
	return a.router
}

func (a *App) SetRouter(r router.Router) {
	a.router = r
}

func (a *App) DbIdentity() db.DbIdentity {
	return a.dbIdentity
}

func (a *App) DbPosts() db.DbPosts {
	return a.dbPosts
}

func (a *App) DbQueue() db.DbQueue {
	return a.dbQueue
}

// SetDb sets all database roles from a single implementation.
func (a *App) SetDb(dbApp db.DbApp) {
	if dbApp == nil {
		panic("DbApp cannot be nil")
	}
	a.dbIdentity = dbApp
	a.dbPosts = dbApp
	a.dbQueue = dbApp
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) SetLogger(l *slog.Logger) {
	a.logger = l
}

func (a *App) SetCache(c cache.Cache[string, interface{}]) {
	a.cache = c
}

func (a *App) Cache() cache.Cache[string, interface{}] {
	return a.cache
}

func (a *App) Config() *config.Config {
	return a.configProvider.Get()
}

func (a *App) ConfigProvider() *config.Provider {
	return a.configProvider
}

func (a *App) SetConfigProvider(provider *config.Provider) {
	a.configProvider = provider
}

func (a *App) Storage() storage.Store {
	return a.storage
}

func (a *App) SetStorage(s storage.Store) {
	a.storage = s
}

// SetAuthenticator sets the authenticator implementation
func (a *App) SetAuthenticator(auth Authenticator) {
	a.authenticator = auth
}

func (a *App) Auth() Authenticator {
	return a.authenticator
}

// SetValidator sets the validator implementation
func (a *App) SetValidator(v Validator) {
	a.validator = v
}

func (a *App) Validator() Validator {
	return a.validator
}
