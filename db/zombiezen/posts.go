package zombiezen

import (
	"context"
	"fmt"

	"github.com/caasmo/credkeeper/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func newPostFromStmt(stmt *sqlite.Stmt) (*db.Post, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}

	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	return &db.Post{
		ID:       stmt.GetText("id"),
		AuthorID: stmt.GetText("author_id"),
		Title:    stmt.GetText("title"),
		Content:  stmt.GetText("content"),
		Created:  created,
		Updated:  updated,
	}, nil
}

const selectPostColumns = `id, author_id, title, content, created, updated`

func (d *Db) GetPost(id string) (*db.Post, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var post *db.Post
	err = sqlitex.Execute(conn,
		`SELECT `+selectPostColumns+` FROM posts WHERE id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				post, err = newPostFromStmt(stmt)
				return err
			},
			Args: []interface{}{id},
		})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, db.ErrPostNotFound
	}

	return post, nil
}

// ListPosts returns posts ordered newest first.
func (d *Db) ListPosts(limit, offset int) ([]db.Post, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var posts []db.Post
	err = sqlitex.Execute(conn,
		`SELECT `+selectPostColumns+` FROM posts
		ORDER BY created DESC LIMIT ? OFFSET ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				post, err := newPostFromStmt(stmt)
				if err != nil {
					return err
				}
				posts = append(posts, *post)
				return nil
			},
			Args: []interface{}{limit, offset},
		})
	if err != nil {
		return nil, err
	}

	return posts, nil
}

func (d *Db) CreatePost(post db.Post) (*db.Post, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var created *db.Post
	err = sqlitex.Execute(conn,
		`INSERT INTO posts (id, author_id, title, content)
		VALUES (?, ?, ?, ?)
		RETURNING `+selectPostColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				created, err = newPostFromStmt(stmt)
				return err
			},
			Args: []interface{}{post.ID, post.AuthorID, post.Title, post.Content},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return created, nil
}

// UpdatePost updates title and content. The author id in the post addresses
// ownership: rows belonging to other authors are not touched.
func (d *Db) UpdatePost(post db.Post) (*db.Post, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var updated *db.Post
	err = sqlitex.Execute(conn,
		`UPDATE posts
		SET title = ?, content = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ? AND author_id = ?
		RETURNING `+selectPostColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				updated, err = newPostFromStmt(stmt)
				return err
			},
			Args: []interface{}{post.Title, post.Content, post.ID, post.AuthorID},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if updated == nil {
		return nil, db.ErrPostNotFound
	}

	return updated, nil
}

func (d *Db) DeletePost(id, authorId string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM posts WHERE id = ? AND author_id = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{id, authorId},
		})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrPostNotFound
	}

	return nil
}
