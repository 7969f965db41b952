package core

import (
	"net/http/httptest"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Password1", wantErr: false},
		{name: "minimum length", password: "Abcdefg1", wantErr: false},
		{name: "too short", password: "Abc1", wantErr: true},
		{name: "too long", password: "Abcdefghijklmnopqrs1x", wantErr: true},
		{name: "no upper case", password: "password1", wantErr: true},
		{name: "no lower case", password: "PASSWORD1", wantErr: true},
		{name: "no digit", password: "Passwords", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestValidatorContentType(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		wantErr     bool
	}{
		{name: "exact match", contentType: "application/json", wantErr: false},
		{name: "with charset", contentType: "application/json; charset=utf-8", wantErr: false},
		{name: "wrong type", contentType: "text/plain", wantErr: true},
		{name: "missing", contentType: "", wantErr: true},
		{name: "prefix only", contentType: "application/jsonx", wantErr: true},
	}

	v := NewValidator()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", nil)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}

			err, resp := v.ContentType(req, MimeTypeJSON)
			if (err != nil) != tc.wantErr {
				t.Errorf("ContentType(%q) error = %v, wantErr %v", tc.contentType, err, tc.wantErr)
			}
			if tc.wantErr && resp.status == 0 {
				t.Error("expected a precomputed error response")
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "user@example.com", wantErr: false},
		{name: "with plus", email: "user+tag@example.com", wantErr: false},
		{name: "no at sign", email: "userexample.com", wantErr: true},
		{name: "empty", email: "", wantErr: true},
		{name: "spaces", email: "user @example.com", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEmail(tc.email)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tc.email, err, tc.wantErr)
			}
		})
	}
}
