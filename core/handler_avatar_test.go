package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/db/mock"
	"github.com/caasmo/credkeeper/storage"
	storagemock "github.com/caasmo/credkeeper/storage/mock"
)

func avatarTestApp(store storage.Store, mockDb *mock.Db) *App {
	app := &App{
		authenticator:  &MockAuthenticator{},
		configProvider: testConfigProvider(),
		logger:         discardLogger(),
		storage:        store,
	}
	app.SetDb(mockDb)
	return app
}

func TestUploadAvatarHandler_Success(t *testing.T) {
	var putKey string
	var putData []byte
	var putContentType string
	store := &storagemock.Store{
		PutFunc: func(ctx context.Context, key string, data []byte, contentType string) error {
			putKey, putData, putContentType = key, data, contentType
			return nil
		},
	}

	var profileAvatar string
	mockDb := &mock.Db{
		UpdateProfileFunc: func(userId, name, avatar string) (*db.User, error) {
			profileAvatar = avatar
			return &db.User{ID: userId, Avatar: avatar}, nil
		},
	}

	app := avatarTestApp(store, mockDb)

	img := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	req := httptest.NewRequest("POST", "/api/avatar", bytes.NewReader(img))
	req.Header.Set("Content-Type", "image/png")
	rr := httptest.NewRecorder()

	app.UploadAvatarHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if !strings.HasPrefix(putKey, "avatars/user123/") || !strings.HasSuffix(putKey, ".png") {
		t.Errorf("unexpected object key %q", putKey)
	}
	if !bytes.Equal(putData, img) {
		t.Error("stored data differs from the upload")
	}
	if putContentType != "image/png" {
		t.Errorf("expected content type image/png, got %q", putContentType)
	}
	if profileAvatar != putKey {
		t.Errorf("profile avatar %q does not match stored key %q", profileAvatar, putKey)
	}

	var resp struct {
		Code string            `json:"code"`
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != CodeOkAvatarUploaded {
		t.Errorf("expected code %q, got %q", CodeOkAvatarUploaded, resp.Code)
	}
	if resp.Data["avatar"] != putKey {
		t.Errorf("expected avatar %q in response, got %q", putKey, resp.Data["avatar"])
	}
}

func TestUploadAvatarHandler_Rejections(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		body        []byte
		maxBytes    int64
		wantStatus  int
		wantCode    string
	}{
		{
			name:        "disallowed content type",
			contentType: "image/gif",
			body:        []byte("gif"),
			maxBytes:    1024,
			wantStatus:  http.StatusUnsupportedMediaType,
			wantCode:    CodeErrorAvatarType,
		},
		{
			name:        "over size limit",
			contentType: "image/png",
			body:        bytes.Repeat([]byte{0xff}, 32),
			maxBytes:    16,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantCode:    CodeErrorAvatarTooLarge,
		},
		{
			name:        "empty body",
			contentType: "image/png",
			body:        nil,
			maxBytes:    1024,
			wantStatus:  http.StatusBadRequest,
			wantCode:    CodeErrorInvalidRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			putCalled := false
			store := &storagemock.Store{
				PutFunc: func(ctx context.Context, key string, data []byte, contentType string) error {
					putCalled = true
					return nil
				},
			}

			app := avatarTestApp(store, &mock.Db{})
			cfg := app.Config()
			cfg.Avatar.MaxBytes = tc.maxBytes

			req := httptest.NewRequest("POST", "/api/avatar", bytes.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rr := httptest.NewRecorder()

			app.UploadAvatarHandler(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			if code := responseCode(t, rr); code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, code)
			}
			if putCalled {
				t.Error("rejected upload must not reach the object store")
			}
		})
	}
}

func TestUploadAvatarHandler_StorageUnavailable(t *testing.T) {
	store := &storagemock.Store{
		PutFunc: func(ctx context.Context, key string, data []byte, contentType string) error {
			return context.DeadlineExceeded
		},
	}

	app := avatarTestApp(store, &mock.Db{})

	req := httptest.NewRequest("POST", "/api/avatar", bytes.NewReader([]byte{0x01}))
	req.Header.Set("Content-Type", "image/png")
	rr := httptest.NewRecorder()

	app.UploadAvatarHandler(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
	if code := responseCode(t, rr); code != CodeErrorStorage {
		t.Errorf("expected code %q, got %q", CodeErrorStorage, code)
	}
}

func TestServeAvatarHandler(t *testing.T) {
	stored := &storage.Object{Data: []byte("png-bytes"), ContentType: "image/png"}

	testCases := []struct {
		name       string
		paramKey   string
		getSetup   func(ctx context.Context, key string) (*storage.Object, error)
		wantStatus int
	}{
		{
			name:     "found",
			paramKey: "user123/x.png",
			getSetup: func(ctx context.Context, key string) (*storage.Object, error) {
				if key != "avatars/user123/x.png" {
					t.Errorf("unexpected storage key %q", key)
				}
				return stored, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "not found",
			paramKey: "user123/missing.png",
			getSetup: func(ctx context.Context, key string) (*storage.Object, error) {
				return nil, storage.ErrObjectNotFound
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "path traversal rejected",
			paramKey:   "../secrets.db",
			getSetup:   nil, // must never be called
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty key",
			paramKey:   "",
			getSetup:   nil,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			getCalled := false
			store := &storagemock.Store{
				GetFunc: func(ctx context.Context, key string) (*storage.Object, error) {
					getCalled = true
					if tc.getSetup == nil {
						t.Fatal("storage must not be reached for this key")
					}
					return tc.getSetup(ctx, key)
				},
			}

			app := avatarTestApp(store, &mock.Db{})
			app.SetRouter(&mockRouter{params: map[string]string{"key": tc.paramKey}})

			req := httptest.NewRequest("GET", "/api/avatars/"+tc.paramKey, nil)
			rr := httptest.NewRecorder()

			app.ServeAvatarHandler(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if tc.getSetup == nil && getCalled {
				t.Error("storage was reached for a rejected key")
			}
			if tc.wantStatus == http.StatusOK {
				if got := rr.Header().Get("Content-Type"); got != "image/png" {
					t.Errorf("expected Content-Type image/png, got %q", got)
				}
				if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
					t.Errorf("expected immutable cache header, got %q", cc)
				}
				if !bytes.Equal(rr.Body.Bytes(), stored.Data) {
					t.Error("served body differs from stored object")
				}
			}
		})
	}
}
