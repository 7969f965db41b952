package zombiezen

import (
	"errors"
	"testing"

	"github.com/caasmo/credkeeper/db"
)

func TestPostCrud(t *testing.T) {
	testDB := newTestDB(t)
	mustCreateUser(t, testDB, "author1", "alice@example.com")

	post, err := testDB.CreatePost(db.Post{
		ID: "post1", AuthorID: "author1", Title: "First", Content: "hello",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.Created.IsZero() {
		t.Fatal("expected created timestamp to be set")
	}

	t.Run("Get", func(t *testing.T) {
		got, err := testDB.GetPost("post1")
		if err != nil {
			t.Fatalf("GetPost failed: %v", err)
		}
		if got.Title != "First" || got.AuthorID != "author1" {
			t.Errorf("unexpected post: %+v", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := testDB.GetPost("missing")
		if !errors.Is(err, db.ErrPostNotFound) {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		got, err := testDB.UpdatePost(db.Post{
			ID: "post1", AuthorID: "author1", Title: "Updated", Content: "edited",
		})
		if err != nil {
			t.Fatalf("UpdatePost failed: %v", err)
		}
		if got.Title != "Updated" {
			t.Errorf("expected updated title, got %q", got.Title)
		}
	})

	t.Run("UpdateWrongAuthor", func(t *testing.T) {
		_, err := testDB.UpdatePost(db.Post{
			ID: "post1", AuthorID: "someone-else", Title: "Hijack",
		})
		if !errors.Is(err, db.ErrPostNotFound) {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		if _, err := testDB.CreatePost(db.Post{ID: "post2", AuthorID: "author1", Title: "Second"}); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		posts, err := testDB.ListPosts(10, 0)
		if err != nil {
			t.Fatalf("ListPosts failed: %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("expected 2 posts, got %d", len(posts))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := testDB.DeletePost("post1", "author1"); err != nil {
			t.Fatalf("DeletePost failed: %v", err)
		}
		if _, err := testDB.GetPost("post1"); !errors.Is(err, db.ErrPostNotFound) {
			t.Errorf("expected post gone, got %v", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		if err := testDB.DeletePost("missing", "author1"); !errors.Is(err, db.ErrPostNotFound) {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})
}
