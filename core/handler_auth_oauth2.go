package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	oauth2provider "github.com/caasmo/credkeeper/oauth2"
)

// oauth2TokenExchangeTimeout bounds the token exchange so an unresponsive
// OAuth2 provider cannot hang the handler.
const oauth2TokenExchangeTimeout = 10 * time.Second

type oauth2Request struct {
	Provider     string `json:"provider"`
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
}

// exchangeOAuth2Code runs the code exchange and user info fetch for a
// configured provider. Shared by login and provider linking.
func (a *App) exchangeOAuth2Code(ctx context.Context, req oauth2Request) (*oauth2provider.ProviderUser, jsonResponse) {
	cfg := a.Config()
	provider, ok := cfg.OAuth2Providers[req.Provider]
	if !ok {
		return nil, errorInvalidOAuth2Provider
	}

	oauth2Config := oauth2.Config{
		ClientID:     provider.ClientID,
		ClientSecret: provider.ClientSecret,
		RedirectURL:  req.RedirectURI,
		Scopes:       provider.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.AuthURL,
			TokenURL: provider.TokenURL,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, oauth2TokenExchangeTimeout)
	defer cancel()

	token, err := oauth2Config.Exchange(ctx, req.Code,
		oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier),
	)
	if err != nil {
		return nil, errorOAuth2ExchangeFailed
	}

	client := oauth2Config.Client(ctx, token)
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return nil, errorOAuth2UserInfoFailed
	}
	defer resp.Body.Close()

	oauthUser, err := oauth2provider.UserFromUserInfoURL(resp, provider.Name)
	if err != nil {
		a.Logger().Debug("failed to map provider user info", "err", err)
		return nil, errorOAuth2UserInfoProcessing
	}

	if oauthUser.Email == "" {
		return nil, errorInvalidRequest
	}
	if err := ValidateEmail(oauthUser.Email); err != nil {
		return nil, errorInvalidRequest
	}

	return oauthUser, jsonResponse{}
}

// AuthWithOAuth2Handler handles OAuth2 login and registration. An unknown
// email registers a new account; a known email gets the provider credential
// linked, unless the provider account already belongs to someone else.
// Endpoint: POST /api/auth-with-oauth2
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) AuthWithOAuth2Handler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	var req oauth2Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if req.Provider == "" || req.Code == "" || req.CodeVerifier == "" || req.RedirectURI == "" {
		writeJsonError(w, errorMissingFields)
		return
	}

	oauthUser, errResp := a.exchangeOAuth2Code(r.Context(), req)
	if oauthUser == nil {
		writeJsonError(w, errResp)
		return
	}

	user, err := a.DbIdentity().GetUserByEmail(oauthUser.Email)
	switch {
	case errors.Is(err, db.ErrUserNotFound):
		// First sight of this email: register. The provider vouches for
		// the address when it reports it verified.
		newUser := db.User{
			ID:       uuid.NewString(),
			Email:    oauthUser.Email,
			Name:     oauthUser.Name,
			Avatar:   oauthUser.AvatarURL,
			Verified: oauthUser.Verified,
		}
		cred := db.Credential{
			UserID:   newUser.ID,
			Provider: req.Provider,
			Secret:   oauthUser.AccountID,
		}
		user, err = a.DbIdentity().CreateUser(newUser, cred)
		if err != nil {
			a.Logger().Error("failed to create oauth2 user", "err", err)
			writeJsonError(w, errorDatabase)
			return
		}
	case err != nil:
		writeJsonError(w, errorDatabase)
		return
	default:
		// Known email: link the provider credential. The store is a no-op
		// when this exact account is already linked, and reports a
		// conflict when the account belongs to another user.
		err = a.DbIdentity().InsertCredential(db.Credential{
			UserID:   user.ID,
			Provider: req.Provider,
			Secret:   oauthUser.AccountID,
		})
		if err != nil {
			writeJsonError(w, storeErrorResponse(err))
			return
		}
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	cfg := a.Config()
	jwtToken, expiry, err := crypto.NewJwtSessionToken(user.ID, user.Email, db.SigningKeyPart(user, creds), []byte(cfg.Jwt.AuthSecret), cfg.Jwt.AuthTokenDuration.Duration)
	if err != nil {
		writeJsonError(w, errorTokenGeneration)
		return
	}

	writeAuthResponse(w, jwtToken, expiresIn(expiry), user)
}
