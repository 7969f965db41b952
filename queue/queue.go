// Package queue defines the job types and payloads the scheduler processes.
package queue

import (
	"time"

	"github.com/caasmo/credkeeper/mail"
)

// Job types
const (
	JobTypeEmailVerification = "job_type_email_verification"
	JobTypePasswordReset     = "job_type_password_reset"
	JobTypeWelcome           = "job_type_welcome"
)

// PayloadEmailVerification contains the email verification details
type PayloadEmailVerification struct {
	Email  string      `json:"email"`
	Locale mail.Locale `json:"locale"`
	// CooldownBucket rate limits requests, see PayloadPasswordReset.
	CooldownBucket int `json:"cooldown_bucket,omitempty"`
}

// PayloadWelcome greets a user after their email is verified.
type PayloadWelcome struct {
	Email  string      `json:"email"`
	Locale mail.Locale `json:"locale"`
}

type PayloadPasswordReset struct {
	Email  string      `json:"email"`
	Locale mail.Locale `json:"locale"`
	// CooldownBucket is the current time divided by the cooldown duration.
	// Only one reset request is possible per bucket: the jobs table has a
	// unique index over (job_type, payload) for pending jobs, so a second
	// request in the same bucket produces an identical row and is rejected.
	CooldownBucket int `json:"cooldown_bucket"`
}

// CoolDownBucket returns the number of complete duration periods since the
// Unix epoch for t. Requests within the same period share a bucket number,
// which makes the bucket usable as a rate limiting key.
func CoolDownBucket(duration time.Duration, t time.Time) int {
	if duration <= 0 {
		panic("duration must be positive")
	}
	return int(t.Unix() / int64(duration.Seconds()))
}
