package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := GenerateHash("Correct1Horse")
	if err != nil {
		t.Fatalf("GenerateHash failed: %v", err)
	}
	if !CheckPassword("Correct1Horse", hash) {
		t.Error("expected matching password to verify")
	}
	if CheckPassword("Wrong1Horse", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestJwtRoundTrip(t *testing.T) {
	key := []byte(strings.Repeat("k", MinKeyLength))
	token, exp, err := NewJwt(jwt.MapClaims{ClaimUserID: "user1"}, key, time.Hour)
	if err != nil {
		t.Fatalf("NewJwt failed: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Error("expected expiry in the future")
	}

	claims, err := ParseJwt(token, key)
	if err != nil {
		t.Fatalf("ParseJwt failed: %v", err)
	}
	if claims[ClaimUserID] != "user1" {
		t.Errorf("expected user_id claim, got %v", claims[ClaimUserID])
	}

	t.Run("WrongKey", func(t *testing.T) {
		other := []byte(strings.Repeat("x", MinKeyLength))
		if _, err := ParseJwt(token, other); err == nil {
			t.Error("expected verification to fail with wrong key")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		expired, _, err := NewJwt(jwt.MapClaims{ClaimUserID: "user1"}, key, -time.Minute)
		if err != nil {
			t.Fatalf("NewJwt failed: %v", err)
		}
		if _, err := ParseJwt(expired, key); !errors.Is(err, ErrJwtTokenExpired) {
			t.Errorf("expected ErrJwtTokenExpired, got %v", err)
		}
	})

	t.Run("ShortKey", func(t *testing.T) {
		_, _, err := NewJwt(jwt.MapClaims{}, []byte("short"), time.Hour)
		if !errors.Is(err, ErrJwtInvalidSecretLength) {
			t.Errorf("expected ErrJwtInvalidSecretLength, got %v", err)
		}
	})
}

func TestParseJwtUnverified(t *testing.T) {
	key := []byte(strings.Repeat("k", MinKeyLength))
	token, _, err := NewJwt(jwt.MapClaims{ClaimUserID: "user1"}, key, time.Hour)
	if err != nil {
		t.Fatalf("NewJwt failed: %v", err)
	}
	claims, err := ParseJwtUnverified(token)
	if err != nil {
		t.Fatalf("ParseJwtUnverified failed: %v", err)
	}
	if claims[ClaimUserID] != "user1" {
		t.Errorf("expected user_id claim, got %v", claims[ClaimUserID])
	}
}

func TestSigningKeyDerivation(t *testing.T) {
	secret := []byte(strings.Repeat("s", MinKeyLength))

	key1, err := NewJwtSigningKeyWithCredentials("a@example.com", "hash1", secret)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	key2, err := NewJwtSigningKeyWithCredentials("a@example.com", "hash1", secret)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	if string(key1) != string(key2) {
		t.Error("expected derivation to be deterministic")
	}

	// Changing the password hash rotates the key, which is what invalidates
	// outstanding sessions after a password change.
	key3, err := NewJwtSigningKeyWithCredentials("a@example.com", "hash2", secret)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	if string(key1) == string(key3) {
		t.Error("expected different hash to yield different key")
	}

	if _, err := NewJwtSigningKeyWithCredentials("", "hash", secret); err == nil {
		t.Error("expected empty email to be rejected")
	}
	if _, err := NewJwtSigningKeyWithCredentials("a@example.com", "hash", []byte("short")); err == nil {
		t.Error("expected short secret to be rejected")
	}
}

func TestOauth2Helpers(t *testing.T) {
	if got := Oauth2State(); len(got) != Oauth2StateLength {
		t.Errorf("expected state length %d, got %d", Oauth2StateLength, len(got))
	}
	verifier := Oauth2CodeVerifier()
	if len(verifier) != OauthCodeVerifierLength {
		t.Errorf("expected verifier length %d, got %d", OauthCodeVerifierLength, len(verifier))
	}
	// base64url(sha256) is always 43 chars, padding stripped.
	if got := S256Challenge(verifier); len(got) != 43 {
		t.Errorf("expected challenge length 43, got %d", len(got))
	}
	if Oauth2State() == Oauth2State() {
		t.Error("expected states to differ")
	}
}
