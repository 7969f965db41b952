// Package oauth2 maps provider user-info responses to a common shape.
package oauth2

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/caasmo/credkeeper/config"
)

// ProviderUser is the provider-independent view of an authenticated OAuth2
// user. AccountID is the provider's stable identifier, never ours.
type ProviderUser struct {
	AccountID string
	Email     string
	Name      string
	AvatarURL string
	Verified  bool
}

// UserFromUserInfoURL decodes the user-info endpoint response of the named
// provider. The response body is consumed but not closed.
func UserFromUserInfoURL(resp *http.Response, providerName string) (*ProviderUser, error) {
	switch providerName {
	case config.OAuth2ProviderGoogle:
		return googleUser(resp)
	case config.OAuth2ProviderGitHub:
		return githubUser(resp)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

func googleUser(resp *http.Response) (*ProviderUser, error) {
	extracted := struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		return nil, fmt.Errorf("failed to decode google user info: %w", err)
	}
	if !extracted.EmailVerified {
		return nil, fmt.Errorf("google email not verified")
	}
	return &ProviderUser{
		AccountID: extracted.Sub,
		Email:     extracted.Email,
		Name:      extracted.Name,
		AvatarURL: extracted.Picture,
		Verified:  true,
	}, nil
}

func githubUser(resp *http.Response) (*ProviderUser, error) {
	extracted := struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		return nil, fmt.Errorf("failed to decode github user info: %w", err)
	}
	if extracted.ID == 0 {
		return nil, fmt.Errorf("github user info missing id")
	}
	name := extracted.Name
	if name == "" {
		name = extracted.Login
	}
	// GitHub only exposes verified primary emails through this endpoint.
	return &ProviderUser{
		AccountID: strconv.FormatInt(extracted.ID, 10),
		Email:     extracted.Email,
		Name:      name,
		AvatarURL: extracted.AvatarURL,
		Verified:  extracted.Email != "",
	}, nil
}
