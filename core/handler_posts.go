package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/caasmo/credkeeper/db"
)

const (
	CodeOkPost        = "ok_post"
	CodeOkPostList    = "ok_post_list"
	CodeOkPostDeleted = "ok_post_deleted"
)

// PostData is the post payload in responses.
type PostData struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Created  string `json:"created"`
	Updated  string `json:"updated"`
}

func newPostData(p *db.Post) PostData {
	return PostData{
		ID:       p.ID,
		AuthorID: p.AuthorID,
		Title:    p.Title,
		Content:  p.Content,
		Created:  p.Created.Format("2006-01-02T15:04:05Z"),
		Updated:  p.Updated.Format("2006-01-02T15:04:05Z"),
	}
}

func writePostResponse(w http.ResponseWriter, status int, post *db.Post) {
	writeJsonWithData(w, JsonWithData{
		JsonBasic: JsonBasic{
			Status:  status,
			Code:    CodeOkPost,
			Message: "Post",
		},
		Data: newPostData(post),
	})
}

const (
	postListDefaultLimit = 20
	postListMaxLimit     = 100
)

// ListPostsHandler returns posts newest first.
// Endpoint: GET /api/posts
// Authenticated: No
func (a *App) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit := postListDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJsonError(w, errorInvalidRequest)
			return
		}
		limit = min(n, postListMaxLimit)
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJsonError(w, errorInvalidRequest)
			return
		}
		offset = n
	}

	posts, err := a.DbPosts().ListPosts(limit, offset)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	items := make([]PostData, 0, len(posts))
	for i := range posts {
		items = append(items, newPostData(&posts[i]))
	}

	writeJsonWithData(w, JsonWithData{
		JsonBasic: JsonBasic{
			Status:  http.StatusOK,
			Code:    CodeOkPostList,
			Message: "Posts",
		},
		Data: map[string]interface{}{"posts": items},
	})
}

// GetPostHandler returns a single post.
// Endpoint: GET /api/posts/{id}
// Authenticated: No
func (a *App) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	id := a.Router().Param(r, "id")
	post, err := a.DbPosts().GetPost(id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			writeJsonError(w, errorNotFound)
			return
		}
		writeJsonError(w, errorDatabase)
		return
	}
	writePostResponse(w, http.StatusOK, post)
}

// CreatePostHandler creates a post authored by the authenticated user.
// Endpoint: POST /api/posts
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Content == "" {
		writeJsonError(w, errorMissingFields)
		return
	}

	post, err := a.DbPosts().CreatePost(db.Post{
		ID:       uuid.NewString(),
		AuthorID: user.ID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	writePostResponse(w, http.StatusCreated, post)
}

// UpdatePostHandler replaces title and content of the author's own post.
// The store matches on both post id and author id, so editing someone
// else's post reports not found.
// Endpoint: PUT /api/posts/{id}
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) UpdatePostHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Content == "" {
		writeJsonError(w, errorMissingFields)
		return
	}

	post, err := a.DbPosts().UpdatePost(db.Post{
		ID:       a.Router().Param(r, "id"),
		AuthorID: user.ID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			writeJsonError(w, errorNotFound)
			return
		}
		writeJsonError(w, errorDatabase)
		return
	}

	writePostResponse(w, http.StatusOK, post)
}

// DeletePostHandler deletes the author's own post.
// Endpoint: DELETE /api/posts/{id}
// Authenticated: Yes
func (a *App) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	err = a.DbPosts().DeletePost(a.Router().Param(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			writeJsonError(w, errorNotFound)
			return
		}
		writeJsonError(w, errorDatabase)
		return
	}

	writeJsonWithData(w, JsonWithData{
		JsonBasic: JsonBasic{
			Status:  http.StatusOK,
			Code:    CodeOkPostDeleted,
			Message: "Post deleted",
		},
	})
}
