package zombiezen

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/migrations"
	"zombiezen.com/go/sqlite/sqlitex"
)

// newTestDB creates a new in-memory SQLite database and applies the full app schema.
func newTestDB(t *testing.T) *Db {
	t.Helper()

	pool, err := sqlitex.NewPool("file::memory:", sqlitex.PoolOptions{
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("failed to create db pool: %v", err)
	}

	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("failed to close db pool: %v", err)
		}
	})

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("failed to get db connection: %v", err)
	}
	defer pool.Put(conn)

	schemaFS := migrations.Schema()
	for _, name := range []string{"app/users.sql", "app/credentials.sql", "app/posts.sql", "app/jobs.sql"} {
		sqlBytes, err := fs.ReadFile(schemaFS, name)
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		if err := sqlitex.ExecuteScript(conn, string(sqlBytes), nil); err != nil {
			t.Fatalf("failed to execute %s: %v", name, err)
		}
	}

	testDB, err := New(pool)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	return testDB
}

// mustCreateUser registers a user with one password credential.
func mustCreateUser(t *testing.T, testDB *Db, id, email string) *db.User {
	t.Helper()
	user, err := testDB.CreateUser(
		db.User{ID: id, Email: email, Name: "Test User"},
		db.Credential{UserID: id, Provider: db.ProviderPassword, Secret: "hash-" + id},
	)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestUserLifecycle(t *testing.T) {
	testDB := newTestDB(t)

	user := mustCreateUser(t, testDB, "user1", "test@example.com")
	if user.ID != "user1" {
		t.Fatalf("expected id user1, got %q", user.ID)
	}
	if user.Created.IsZero() || user.Updated.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	t.Run("GetById", func(t *testing.T) {
		got, err := testDB.GetUserById("user1")
		if err != nil {
			t.Fatalf("GetUserById failed: %v", err)
		}
		if got.Email != "test@example.com" {
			t.Errorf("expected email test@example.com, got %q", got.Email)
		}
	})

	t.Run("GetByEmailCaseInsensitive", func(t *testing.T) {
		got, err := testDB.GetUserByEmail("TEST@Example.COM")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != "user1" {
			t.Errorf("expected user1, got %q", got.ID)
		}
	})

	t.Run("GetByIdNotFound", func(t *testing.T) {
		_, err := testDB.GetUserById("missing")
		if !errors.Is(err, db.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("CreateLeavesOneCredential", func(t *testing.T) {
		creds, err := testDB.GetCredentials("user1")
		if err != nil {
			t.Fatalf("GetCredentials failed: %v", err)
		}
		if len(creds) != 1 {
			t.Fatalf("expected 1 credential after registration, got %d", len(creds))
		}
		if creds[0].Provider != db.ProviderPassword {
			t.Errorf("expected password credential, got %q", creds[0].Provider)
		}
	})

	t.Run("VerifyEmail", func(t *testing.T) {
		if err := testDB.VerifyEmail("user1"); err != nil {
			t.Fatalf("VerifyEmail failed: %v", err)
		}
		got, err := testDB.GetUserById("user1")
		if err != nil {
			t.Fatalf("GetUserById failed: %v", err)
		}
		if !got.Verified {
			t.Error("expected user to be verified")
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	testDB := newTestDB(t)
	mustCreateUser(t, testDB, "user1", "test@example.com")

	t.Run("NameOnly", func(t *testing.T) {
		got, err := testDB.UpdateProfile("user1", "New Name", "")
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if got.Name != "New Name" {
			t.Errorf("expected name to change, got %q", got.Name)
		}
		if got.Avatar != "" {
			t.Errorf("expected avatar unchanged, got %q", got.Avatar)
		}
	})

	t.Run("AvatarOnly", func(t *testing.T) {
		got, err := testDB.UpdateProfile("user1", "", "avatars/user1/abc.png")
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if got.Name != "New Name" {
			t.Errorf("expected name unchanged, got %q", got.Name)
		}
		if got.Avatar != "avatars/user1/abc.png" {
			t.Errorf("expected avatar to change, got %q", got.Avatar)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := testDB.UpdateProfile("missing", "Name", "")
		if !errors.Is(err, db.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestDeleteUserCascade(t *testing.T) {
	testDB := newTestDB(t)
	mustCreateUser(t, testDB, "user1", "test@example.com")

	err := testDB.InsertCredential(db.Credential{
		UserID: "user1", Provider: db.ProviderGoogle, Secret: "google-account-1",
	})
	if err != nil {
		t.Fatalf("InsertCredential failed: %v", err)
	}
	if _, err := testDB.CreatePost(db.Post{ID: "post1", AuthorID: "user1", Title: "t"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := testDB.DeleteUser("user1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := testDB.GetUserById("user1"); !errors.Is(err, db.ErrUserNotFound) {
		t.Errorf("expected user gone, got %v", err)
	}
	creds, err := testDB.GetCredentials("user1")
	if err != nil {
		t.Fatalf("GetCredentials failed: %v", err)
	}
	if len(creds) != 0 {
		t.Errorf("expected credentials cascade-deleted, got %d", len(creds))
	}
	if _, err := testDB.GetPost("post1"); !errors.Is(err, db.ErrPostNotFound) {
		t.Errorf("expected posts cascade-deleted, got %v", err)
	}

	t.Run("DeleteMissing", func(t *testing.T) {
		if err := testDB.DeleteUser("missing"); !errors.Is(err, db.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}
