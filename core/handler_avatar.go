package core

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/caasmo/credkeeper/storage"
)

// avatarExtensions maps allowed content types to object key extensions.
var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/avif": "avif",
}

// headersAvatar is applied when serving avatars. Keys embed a random uuid,
// so a changed avatar gets a new URL and long caching is safe.
var headersAvatar = map[string]string{
	"Cache-Control":          "public, max-age=31536000, immutable",
	"X-Content-Type-Options": "nosniff",
}

func avatarContentTypeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if t == contentType {
			return true
		}
	}
	return false
}

// UploadAvatarHandler stores a new avatar in the object store and points
// the profile at it. The previous object, if any, is left behind; keys are
// random so it simply becomes unreachable.
// Endpoint: POST /api/avatar
// Authenticated: Yes
// Allowed Mimetype: the configured avatar image types
func (a *App) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	cfg := a.Config()
	contentType := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0])
	if !avatarContentTypeAllowed(contentType, cfg.Avatar.AllowedTypes) {
		writeJsonError(w, errorAvatarType)
		return
	}

	body := http.MaxBytesReader(w, r.Body, cfg.Avatar.MaxBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJsonError(w, errorAvatarTooLarge)
			return
		}
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if len(data) == 0 {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	ext, ok := avatarExtensions[contentType]
	if !ok {
		ext = "img"
	}
	key := "avatars/" + user.ID + "/" + uuid.NewString() + "." + ext
	if err := a.Storage().Put(r.Context(), key, data, contentType); err != nil {
		a.Logger().Error("failed to store avatar", "key", key, "err", err)
		writeJsonError(w, errorStorage)
		return
	}

	updated, err := a.DbIdentity().UpdateProfile(user.ID, "", key)
	if err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	writeJsonWithData(w, JsonWithData{
		JsonBasic: JsonBasic{
			Status:  http.StatusOK,
			Code:    CodeOkAvatarUploaded,
			Message: "Avatar uploaded",
		},
		Data: map[string]string{"avatar": updated.Avatar},
	})
}

// ServeAvatarHandler streams an avatar object from storage.
// Endpoint: GET /api/avatars/{key...}
// Authenticated: No
func (a *App) ServeAvatarHandler(w http.ResponseWriter, r *http.Request) {
	key := a.Router().Param(r, "key")
	if key == "" || strings.Contains(key, "..") {
		writeJsonError(w, errorNotFound)
		return
	}

	obj, err := a.Storage().Get(r.Context(), "avatars/"+key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeJsonError(w, errorNotFound)
			return
		}
		a.Logger().Error("failed to fetch avatar", "key", key, "err", err)
		writeJsonError(w, errorStorage)
		return
	}

	setHeaders(w, headersAvatar)
	w.Header().Set("Content-Type", obj.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}
