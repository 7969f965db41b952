package servemux

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteDispatchAndParams(t *testing.T) {
	r := New()

	var gotID, gotKey string
	r.HandleFunc("GET /api/posts/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotID = r.Param(req, "id")
	})
	r.HandleFunc("GET /api/avatar/{key...}", func(w http.ResponseWriter, req *http.Request) {
		gotKey = r.Param(req, "key")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/posts/post1", nil))
	if gotID != "post1" {
		t.Errorf("expected id param post1, got %q", gotID)
	}

	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/avatar/avatars/user1/x.png", nil))
	if gotKey != "avatars/user1/x.png" {
		t.Errorf("expected full key param, got %q", gotKey)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := New()
	r.HandleFunc("POST /api/set-password", func(w http.ResponseWriter, req *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/set-password", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for wrong method, got %d", rec.Code)
	}
}
