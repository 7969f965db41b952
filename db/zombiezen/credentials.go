package zombiezen

import (
	"context"
	"fmt"

	"github.com/caasmo/credkeeper/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func newCredentialFromStmt(stmt *sqlite.Stmt) (db.Credential, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return db.Credential{}, fmt.Errorf("error parsing created time: %w", err)
	}

	return db.Credential{
		UserID:   stmt.GetText("user_id"),
		Provider: stmt.GetText("provider"),
		Secret:   stmt.GetText("secret"),
		Created:  created,
	}, nil
}

func credentialsForUser(conn *sqlite.Conn, userId string) ([]db.Credential, error) {
	var creds []db.Credential
	err := sqlitex.Execute(conn,
		`SELECT user_id, provider, secret, created
		FROM credentials WHERE user_id = ? ORDER BY created, provider`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				cred, err := newCredentialFromStmt(stmt)
				if err != nil {
					return err
				}
				creds = append(creds, cred)
				return nil
			},
			Args: []interface{}{userId},
		})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// GetCredentials returns all sign-in methods attached to a user. An empty
// slice with nil error means the user has none (only possible before
// registration completes or after deletion).
func (d *Db) GetCredentials(userId string) ([]db.Credential, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	return credentialsForUser(conn, userId)
}

// InsertCredential attaches a credential to a user.
//
// The precondition checks run in the same immediate transaction as the
// insert, so the decision is made against the snapshot the write commits
// against:
//   - password: fails with db.ErrCredentialExists if one is present.
//   - oauth2: fails with db.ErrProviderTaken when the provider account
//     (provider, secret) belongs to a different user, and is a no-op when
//     the user already has this provider linked.
func (d *Db) InsertCredential(cred db.Credential) (err error) {
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

	var ownProvider bool
	err = sqlitex.Execute(conn,
		`SELECT 1 FROM credentials WHERE user_id = ? AND provider = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ownProvider = true
				return nil
			},
			Args: []interface{}{cred.UserID, cred.Provider},
		})
	if err != nil {
		return fmt.Errorf("failed to check existing credential: %w", err)
	}

	if ownProvider {
		if cred.Provider == db.ProviderPassword {
			err = db.ErrCredentialExists
			return err
		}
		// Provider already linked to this user: linking again is a no-op.
		return nil
	}

	if cred.Provider != db.ProviderPassword {
		var takenBy string
		err = sqlitex.Execute(conn,
			`SELECT user_id FROM credentials WHERE provider = ? AND secret = ? LIMIT 1`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					takenBy = stmt.GetText("user_id")
					return nil
				},
				Args: []interface{}{cred.Provider, cred.Secret},
			})
		if err != nil {
			return fmt.Errorf("failed to check provider account: %w", err)
		}
		if takenBy != "" && takenBy != cred.UserID {
			err = db.ErrProviderTaken
			return err
		}
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO credentials (user_id, provider, secret) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []interface{}{cred.UserID, cred.Provider, cred.Secret},
		})
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return nil
}

// UpdatePasswordSecret replaces the stored password hash. Fails with
// db.ErrCredentialNotFound when no password credential exists.
func (d *Db) UpdatePasswordSecret(userId, newSecret string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE credentials SET secret = ?
		WHERE user_id = ? AND provider = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{newSecret, userId, db.ProviderPassword},
		})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrCredentialNotFound
	}

	return nil
}

// DeleteCredential removes one credential from a user. The last-credential
// check runs inside the immediate transaction, so two concurrent deletes on
// a two-credential user cannot both succeed.
func (d *Db) DeleteCredential(userId, provider string) (err error) {
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

	var total, matching int64
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE provider = ?) AS matching
		FROM credentials WHERE user_id = ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				total = stmt.GetInt64("total")
				matching = stmt.GetInt64("matching")
				return nil
			},
			Args: []interface{}{provider, userId},
		})
	if err != nil {
		return fmt.Errorf("failed to count credentials: %w", err)
	}

	if matching == 0 {
		err = db.ErrCredentialNotFound
		return err
	}
	if total <= 1 {
		err = db.ErrLastCredential
		return err
	}

	err = sqlitex.Execute(conn,
		`DELETE FROM credentials WHERE user_id = ? AND provider = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{userId, provider},
		})
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}
