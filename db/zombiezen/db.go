package zombiezen

import (
	"fmt"

	"github.com/caasmo/credkeeper/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type Db struct {
	pool *sqlitex.Pool
}

// Verify interface implementations
var _ db.DbIdentity = (*Db)(nil)
var _ db.DbPosts = (*Db)(nil)
var _ db.DbQueue = (*Db)(nil)

// New creates a new Db instance using an existing pool provided by the user.
// The lifecycle of the pool is managed externally; this type does not close it.
func New(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

// NewPool opens a connection pool on the given database file with the
// defaults this application expects (WAL, foreign keys on).
func NewPool(path string) (*sqlitex.Pool, error) {
	return sqlitex.NewPool(path, sqlitex.PoolOptions{})
}

// NewConn opens a single standalone connection, used by maintenance work
// like backups that must not go through the shared pool.
func NewConn(path string) (*sqlite.Conn, error) {
	return sqlite.OpenConn(path, sqlite.OpenReadWrite)
}
