package db

import "errors"

var (
	// ErrUserNotFound is returned when a user lookup matches no row.
	ErrUserNotFound = errors.New("user not found")

	// ErrCredentialNotFound is returned when a credential mutation targets a
	// provider the user has no credential for.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrCredentialExists is returned when inserting a password credential
	// for a user that already has one.
	ErrCredentialExists = errors.New("credential already exists")

	// ErrLastCredential is returned when a delete would leave the user with
	// zero sign-in methods. The check runs inside the write transaction, so
	// concurrent unlinks cannot both pass it.
	ErrLastCredential = errors.New("cannot remove last credential")

	// ErrProviderTaken is returned when linking an OAuth2 account that is
	// already attached to a different user.
	ErrProviderTaken = errors.New("provider account linked to another user")

	// ErrPostNotFound is returned when a post lookup matches no row.
	ErrPostNotFound = errors.New("post not found")

	// ErrConstraintUnique is returned when an insert collides with a unique
	// index, e.g. queueing the same pending job twice.
	ErrConstraintUnique = errors.New("unique constraint violation")
)
