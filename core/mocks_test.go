package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/db"
)

// responseCode extracts the "code" field from a recorded JSON response.
func responseCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	code, _ := body["code"].(string)
	return code
}

// errAuthFailed is what mocked authenticators return on denial.
var errAuthFailed = errors.New("auth error")

// MockValidator implements Validator for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
type MockValidator struct {
	ContentTypeFunc func(r *http.Request, allowedType string) (error, jsonResponse)
}

func (m *MockValidator) ContentType(r *http.Request, allowedType string) (error, jsonResponse) {
	if m.ContentTypeFunc != nil {
		return m.ContentTypeFunc(r, allowedType)
	}
	return nil, jsonResponse{} // Default: accept any content type
}

// MockAuthenticator implements Authenticator for testing purposes.
type MockAuthenticator struct {
	AuthenticateFunc func(r *http.Request) (*db.User, error, jsonResponse)
}

func (m *MockAuthenticator) Authenticate(r *http.Request) (*db.User, error, jsonResponse) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(r)
	}
	return &db.User{ID: "user123", Email: "test@example.com", Verified: true}, nil, jsonResponse{}
}

// mockRouter implements router.Router with a fixed parameter map, enough
// for handlers that only call Param.
type mockRouter struct {
	params map[string]string
}

func (m *mockRouter) ServeHTTP(w http.ResponseWriter, r *http.Request)              {}
func (m *mockRouter) Handle(pattern string, handler http.Handler)                   {}
func (m *mockRouter) HandleFunc(pattern string, h func(http.ResponseWriter, *http.Request)) {}

func (m *mockRouter) Param(req *http.Request, key string) string {
	return m.params[key]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfigProvider() *config.Provider {
	return config.NewProvider(config.NewDefaultConfig())
}
