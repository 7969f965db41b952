// Package guard decides whether a requested credential mutation may proceed.
//
// Every rule is a pure function over the user's current credential set and
// the facts of the request. No I/O happens here; callers load the credential
// snapshot, ask the guard, and apply the write inside the same transaction
// that re-checks the precondition.
//
// The central invariant: a registered user keeps at least one credential at
// all times.
package guard

import (
	"github.com/caasmo/credkeeper/db"
)

// Reason identifies why a mutation was denied.
type Reason string

const (
	ReasonAlreadyHasPassword   Reason = "ALREADY_HAS_PASSWORD"
	ReasonCurrentSecretInvalid Reason = "CURRENT_SECRET_INVALID"
	ReasonNoPasswordToChange   Reason = "NO_PASSWORD_TO_CHANGE"
	ReasonLastCredential       Reason = "LAST_CREDENTIAL"
	ReasonProviderTaken        Reason = "PROVIDER_TAKEN"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny builds a negative decision carrying the reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

func hasProvider(creds []db.Credential, provider string) bool {
	for _, c := range creds {
		if c.Provider == provider {
			return true
		}
	}
	return false
}

// SetInitialPassword allows adding a password credential only to users that
// have none.
func SetInitialPassword(creds []db.Credential) Decision {
	if hasProvider(creds, db.ProviderPassword) {
		return Deny(ReasonAlreadyHasPassword)
	}
	return Allow
}

// ChangePassword allows replacing the password credential when one exists
// and the caller proved knowledge of the current secret. The caller performs
// the actual secret comparison and passes the result in currentSecretValid.
func ChangePassword(creds []db.Credential, currentSecretValid bool) Decision {
	if !hasProvider(creds, db.ProviderPassword) {
		return Deny(ReasonNoPasswordToChange)
	}
	if !currentSecretValid {
		return Deny(ReasonCurrentSecretInvalid)
	}
	return Allow
}

// UnlinkProvider allows removing a credential only while at least one other
// credential remains. It does not check that the provider is actually
// linked; the store reports that as not found.
func UnlinkProvider(creds []db.Credential, provider string) Decision {
	if len(creds) <= 1 && hasProvider(creds, provider) {
		return Deny(ReasonLastCredential)
	}
	return Allow
}

// LinkProvider allows attaching a provider account unless that account is
// already attached to a different user. Re-linking an account the user
// already owns is allowed and ends up a no-op. The caller resolves ownership
// of the remote account and passes the result in ownedByOtherUser.
func LinkProvider(creds []db.Credential, provider string, ownedByOtherUser bool) Decision {
	if ownedByOtherUser {
		return Deny(ReasonProviderTaken)
	}
	return Allow
}

// DeleteAccount is always allowed, whatever the credential state. Deletion
// cascades over credentials, so the at-least-one invariant only binds while
// the user exists.
func DeleteAccount(creds []db.Credential) Decision {
	return Allow
}
