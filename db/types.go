package db

import (
	"encoding/json"
	"time"
)

// User represents a user from the database.
// Timestamps (Created and Updated) use RFC3339 format in UTC timezone.
// Example: "2024-03-07T15:04:05Z"
type User struct {
	ID       string
	Email    string
	Name     string
	// Avatar holds the object storage key of the current avatar, empty if none.
	Avatar   string
	Created  time.Time
	Updated  time.Time
	Verified bool
}

// Provider kinds for credentials. ProviderPassword is special: at most one
// password credential may exist per user, and its Secret is the bcrypt hash.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
	ProviderGithub   = "github"
)

// Credential is one sign-in method attached to a user. A user always keeps
// at least one credential once registered; the store enforces this inside
// its write transactions.
type Credential struct {
	UserID   string
	Provider string
	// Secret is provider specific and never exposed to callers: the bcrypt
	// hash for password credentials, the provider account id for OAuth2.
	Secret  string
	Created time.Time
}

// PasswordSecret returns the bcrypt hash of the user's password credential,
// or an empty string when none exists.
func PasswordSecret(creds []Credential) string {
	for _, c := range creds {
		if c.Provider == ProviderPassword {
			return c.Secret
		}
	}
	return ""
}

// SigningKeyPart returns the user-specific component mixed into JWT signing
// keys. Password users get their hash, so rotating the password invalidates
// outstanding tokens. OAuth2-only users get a stable id-derived value.
func SigningKeyPart(user *User, creds []Credential) string {
	if s := PasswordSecret(creds); s != "" {
		return s
	}
	return "oauth2:" + user.ID
}

// Post is a blog entry authored by a user.
type Post struct {
	ID       string
	AuthorID string
	Title    string
	Content  string
	Created  time.Time
	Updated  time.Time
}

// Job represents a job in the processing queue
type Job struct {
	ID           int64           `json:"id"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"max_attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	CompletedAt  time.Time       `json:"completed_at,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
	Recurrent    bool            `json:"recurrent"`
	Interval     time.Duration   `json:"interval"`
}

// Job statuses as stored in the jobs table.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
