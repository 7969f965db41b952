package zombiezen

import (
	"context"
	"fmt"

	"github.com/caasmo/credkeeper/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// newUserFromStmt creates a User struct from a SQLite statement
func newUserFromStmt(stmt *sqlite.Stmt) (*db.User, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}

	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	return &db.User{
		ID:       stmt.GetText("id"),
		Name:     stmt.GetText("name"),
		Avatar:   stmt.GetText("avatar"),
		Email:    stmt.GetText("email"),
		Verified: stmt.GetInt64("verified") != 0,
		Created:  created,
		Updated:  updated,
	}, nil
}

const selectUserColumns = `id, name, avatar, email, verified, created, updated`

// GetUserById retrieves a user by id. Returns db.ErrUserNotFound when no
// matching row exists; timestamps are UTC, RFC3339.
func (d *Db) GetUserById(id string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+selectUserColumns+` FROM users WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []interface{}{id},
		})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, db.ErrUserNotFound
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email address. The email column is
// NOCASE, so the lookup is case-insensitive.
func (d *Db) GetUserByEmail(email string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+selectUserColumns+` FROM users WHERE email = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []interface{}{email},
		})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, db.ErrUserNotFound
	}

	return user, nil
}

// CreateUser inserts a new user together with its first credential in one
// immediate transaction, so a registered user is never observable with zero
// credentials.
func (d *Db) CreateUser(user db.User, cred db.Credential) (created *db.User, err error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	err = sqlitex.Execute(conn,
		`INSERT INTO users (id, name, avatar, email, verified)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+selectUserColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				created, err = newUserFromStmt(stmt)
				return err
			},
			Args: []interface{}{
				user.ID,
				user.Name,
				user.Avatar,
				user.Email,
				user.Verified,
			},
		})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return nil, db.ErrConstraintUnique
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO credentials (user_id, provider, secret) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []interface{}{user.ID, cred.Provider, cred.Secret},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to insert credential: %w", err)
	}

	return created, nil
}

// UpdateProfile applies a partial profile update. Empty name or avatar
// leaves the stored value unchanged; updated is always touched.
func (d *Db) UpdateProfile(userId, name, avatar string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`UPDATE users
		SET name = IIF(? = '', name, ?),
			avatar = IIF(? = '', avatar, ?),
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?
		RETURNING `+selectUserColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []interface{}{name, name, avatar, avatar, userId},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, db.ErrUserNotFound
	}

	return user, nil
}

func (d *Db) VerifyEmail(userId string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET verified = true,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{userId},
		})
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}

// DeleteUser removes the user and everything owned by it, child rows before
// the parent: credentials and posts first, the user row last.
func (d *Db) DeleteUser(userId string) (err error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	for _, stmt := range []string{
		`DELETE FROM credentials WHERE user_id = ?`,
		`DELETE FROM posts WHERE author_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if err = sqlitex.Execute(conn, stmt, &sqlitex.ExecOptions{
			Args: []interface{}{userId},
		}); err != nil {
			return fmt.Errorf("failed to delete account data: %w", err)
		}
	}

	if conn.Changes() == 0 {
		err = db.ErrUserNotFound
		return err
	}

	return nil
}
