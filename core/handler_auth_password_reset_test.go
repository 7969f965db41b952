package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/db/mock"
	"github.com/caasmo/credkeeper/queue"
)

func TestRequestPasswordResetHandler(t *testing.T) {
	testUser := &db.User{ID: "user123", Email: "test@example.com", Verified: true}

	testCases := []struct {
		name        string
		requestBody string
		dbSetup     func(*mock.Db)
		wantStatus  int
		wantCode    string
		wantInsert  bool
	}{
		{
			name:        "queues reset job",
			requestBody: `{"email":"test@example.com"}`,
			dbSetup: func(m *mock.Db) {
				m.GetUserByEmailFunc = func(email string) (*db.User, error) { return testUser, nil }
			},
			wantStatus: http.StatusAccepted,
			wantCode:   CodeOkPasswordResetRequested,
			wantInsert: true,
		},
		{
			name:        "unknown email reports success",
			requestBody: `{"email":"nobody@example.com"}`,
			dbSetup:     func(m *mock.Db) {},
			wantStatus:  http.StatusAccepted,
			wantCode:    CodeOkPasswordResetRequested,
		},
		{
			name:        "duplicate request within cooldown",
			requestBody: `{"email":"test@example.com"}`,
			dbSetup: func(m *mock.Db) {
				m.GetUserByEmailFunc = func(email string) (*db.User, error) { return testUser, nil }
				m.InsertJobFunc = func(job db.Job) error { return db.ErrConstraintUnique }
			},
			wantStatus: http.StatusConflict,
			wantCode:   CodeErrorPasswordResetRequested,
			wantInsert: true,
		},
		{
			name:        "invalid email",
			requestBody: `{"email":"not-an-email"}`,
			dbSetup:     func(m *mock.Db) {},
			wantStatus:  http.StatusBadRequest,
			wantCode:    CodeErrorInvalidRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDb := &mock.Db{}
			tc.dbSetup(mockDb)

			insertCalled := false
			var insertedJob db.Job
			prev := mockDb.InsertJobFunc
			mockDb.InsertJobFunc = func(job db.Job) error {
				insertCalled = true
				insertedJob = job
				if prev != nil {
					return prev(job)
				}
				return nil
			}

			app := &App{
				validator:      NewValidator(),
				configProvider: testConfigProvider(),
				logger:         discardLogger(),
			}
			app.SetDb(mockDb)

			req := httptest.NewRequest("POST", "/api/request-password-reset", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept-Language", "zh-CN")
			rr := httptest.NewRecorder()

			app.RequestPasswordResetHandler(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			if code := responseCode(t, rr); code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, code)
			}
			if insertCalled != tc.wantInsert {
				t.Errorf("expected job insert %v, was %v", tc.wantInsert, insertCalled)
			}
			if tc.wantInsert && insertCalled {
				if insertedJob.JobType != queue.JobTypePasswordReset {
					t.Errorf("expected job type %q, got %q", queue.JobTypePasswordReset, insertedJob.JobType)
				}
				var payload queue.PayloadPasswordReset
				if err := json.Unmarshal(insertedJob.Payload, &payload); err != nil {
					t.Fatalf("failed to decode job payload: %v", err)
				}
				if payload.Locale != "zh" {
					t.Errorf("expected locale zh from Accept-Language, got %q", payload.Locale)
				}
			}
		})
	}
}

func resetTokenForTest(t *testing.T, user *db.User, creds []db.Credential, secret string, duration time.Duration) string {
	t.Helper()
	key, err := crypto.NewJwtSigningKeyWithCredentials(user.Email, db.SigningKeyPart(user, creds), []byte(secret))
	if err != nil {
		t.Fatalf("failed to derive signing key: %v", err)
	}
	claims := jwt.MapClaims{
		crypto.ClaimUserID: user.ID,
		crypto.ClaimEmail:  user.Email,
		crypto.ClaimType:   crypto.ClaimTypePasswordReset,
	}
	token, _, err := crypto.NewJwt(claims, key, duration)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	return token
}

func TestConfirmPasswordResetHandler(t *testing.T) {
	provider := testConfigProvider()
	secret := provider.Get().Jwt.PasswordResetSecret

	currentHash, _ := crypto.GenerateHash("OldPassword1")
	testUser := &db.User{ID: "user123", Email: "test@example.com", Verified: true}
	creds := []db.Credential{{UserID: "user123", Provider: db.ProviderPassword, Secret: string(currentHash)}}

	testCases := []struct {
		name        string
		requestBody func(t *testing.T) string
		dbSetup     func(*mock.Db)
		wantStatus  int
		wantCode    string
		wantUpdate  bool
	}{
		{
			name: "valid token resets password",
			requestBody: func(t *testing.T) string {
				token := resetTokenForTest(t, testUser, creds, secret, time.Hour)
				return `{"token":"` + token + `","password":"NewPassword1","password_confirm":"NewPassword1"}`
			},
			dbSetup: func(m *mock.Db) {
				m.GetUserByIdFunc = func(id string) (*db.User, error) { return testUser, nil }
				m.GetCredentialsFunc = func(userId string) ([]db.Credential, error) { return creds, nil }
			},
			wantStatus: http.StatusOK,
			wantCode:   CodeOkPasswordReset,
			wantUpdate: true,
		},
		{
			name: "token invalidated by earlier reset",
			requestBody: func(t *testing.T) string {
				oldCreds := []db.Credential{{UserID: "user123", Provider: db.ProviderPassword, Secret: "pre-reset-hash"}}
				token := resetTokenForTest(t, testUser, oldCreds, secret, time.Hour)
				return `{"token":"` + token + `","password":"NewPassword1","password_confirm":"NewPassword1"}`
			},
			dbSetup: func(m *mock.Db) {
				m.GetUserByIdFunc = func(id string) (*db.User, error) { return testUser, nil }
				m.GetCredentialsFunc = func(userId string) ([]db.Credential, error) { return creds, nil }
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   CodeErrorJwtInvalidCallbackToken,
		},
		{
			name: "expired token",
			requestBody: func(t *testing.T) string {
				token := resetTokenForTest(t, testUser, creds, secret, -time.Minute)
				return `{"token":"` + token + `","password":"NewPassword1","password_confirm":"NewPassword1"}`
			},
			dbSetup: func(m *mock.Db) {
				m.GetUserByIdFunc = func(id string) (*db.User, error) { return testUser, nil }
				m.GetCredentialsFunc = func(userId string) ([]db.Credential, error) { return creds, nil }
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   CodeErrorJwtInvalidCallbackToken,
		},
		{
			name: "weak new password",
			requestBody: func(t *testing.T) string {
				token := resetTokenForTest(t, testUser, creds, secret, time.Hour)
				return `{"token":"` + token + `","password":"weak","password_confirm":"weak"}`
			},
			dbSetup:    func(m *mock.Db) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeErrorPasswordComplexity,
		},
		{
			name: "missing token",
			requestBody: func(t *testing.T) string {
				return `{"password":"NewPassword1","password_confirm":"NewPassword1"}`
			},
			dbSetup:    func(m *mock.Db) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeErrorMissingFields,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDb := &mock.Db{}
			tc.dbSetup(mockDb)

			updateCalled := false
			mockDb.UpdatePasswordSecretFunc = func(userId, newSecret string) error {
				updateCalled = true
				if !crypto.CheckPassword("NewPassword1", newSecret) {
					t.Error("stored secret does not verify against the new password")
				}
				return nil
			}

			app := &App{
				validator:      NewValidator(),
				configProvider: provider,
				logger:         discardLogger(),
			}
			app.SetDb(mockDb)

			req := httptest.NewRequest("POST", "/api/confirm-password-reset", strings.NewReader(tc.requestBody(t)))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			app.ConfirmPasswordResetHandler(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			if code := responseCode(t, rr); code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, code)
			}
			if updateCalled != tc.wantUpdate {
				t.Errorf("expected password update %v, was %v", tc.wantUpdate, updateCalled)
			}
		})
	}
}
