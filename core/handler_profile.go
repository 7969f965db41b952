package core

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/caasmo/credkeeper/db"
)

// ProfileData is the payload of profile responses. Providers lists the
// sign-in methods currently attached to the account; secrets never leave
// the store.
type ProfileData struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	Verified  bool     `json:"verified"`
	Providers []string `json:"providers"`
}

func newProfileData(user *db.User, creds []db.Credential) ProfileData {
	providers := make([]string, 0, len(creds))
	for _, c := range creds {
		providers = append(providers, c.Provider)
	}
	return ProfileData{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Verified:  user.Verified,
		Providers: providers,
	}
}

func writeProfileResponse(w http.ResponseWriter, user *db.User, creds []db.Credential) {
	writeJsonWithData(w, JsonWithData{
		JsonBasic: JsonBasic{
			Status:  http.StatusOK,
			Code:    CodeOkProfile,
			Message: "Profile",
		},
		Data: newProfileData(user, creds),
	})
}

// GetProfileHandler returns the authenticated user's profile with the list
// of linked providers.
// Endpoint: GET /api/profile
// Authenticated: Yes
func (a *App) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	writeProfileResponse(w, user, creds)
}

// UpdateProfileHandler applies a partial profile update. Omitted fields
// keep their stored value; a name consisting only of whitespace is
// rejected.
// Endpoint: PUT /api/profile
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	var req struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if req.Name == nil && req.Avatar == nil {
		writeJsonError(w, errorMissingFields)
		return
	}

	var name, avatar string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			writeJsonError(w, errorInvalidRequest)
			return
		}
	}
	if req.Avatar != nil {
		avatar = *req.Avatar
	}

	updated, err := a.DbIdentity().UpdateProfile(user.ID, name, avatar)
	if err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	creds, err := a.DbIdentity().GetCredentials(updated.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	writeProfileResponse(w, updated, creds)
}
