package credkeeper

import (
	"net/http"

	"github.com/caasmo/credkeeper/core"
	"github.com/caasmo/credkeeper/router"
)

// route registers every API endpoint on the app's router. Handlers that
// require a session authenticate themselves through the app's Authenticator.
func route(app *core.App) {
	chains := router.Chains{
		// Registration and authentication.
		"POST /api/register-with-password": router.NewChain(http.HandlerFunc(app.RegisterWithPasswordHandler)),
		"POST /api/auth-with-password":     router.NewChain(http.HandlerFunc(app.AuthWithPasswordHandler)),
		"POST /api/auth-with-oauth2":       router.NewChain(http.HandlerFunc(app.AuthWithOAuth2Handler)),
		"POST /api/auth-refresh":           router.NewChain(http.HandlerFunc(app.RefreshAuthHandler)),
		"GET /api/list-oauth2-providers":   router.NewChain(http.HandlerFunc(app.ListOAuth2ProvidersHandler)),

		// Email verification and password reset.
		"POST /api/request-verification":   router.NewChain(http.HandlerFunc(app.RequestEmailVerificationHandler)),
		"POST /api/confirm-verification":   router.NewChain(http.HandlerFunc(app.ConfirmEmailVerificationHandler)),
		"POST /api/request-password-reset": router.NewChain(http.HandlerFunc(app.RequestPasswordResetHandler)),
		"POST /api/confirm-password-reset": router.NewChain(http.HandlerFunc(app.ConfirmPasswordResetHandler)),

		// Credential management.
		"POST /api/set-password":    router.NewChain(http.HandlerFunc(app.SetPasswordHandler)),
		"POST /api/change-password": router.NewChain(http.HandlerFunc(app.ChangePasswordHandler)),
		"POST /api/link-provider":   router.NewChain(http.HandlerFunc(app.LinkProviderHandler)),
		"POST /api/unlink-provider": router.NewChain(http.HandlerFunc(app.UnlinkProviderHandler)),
		"POST /api/delete-account":  router.NewChain(http.HandlerFunc(app.DeleteAccountHandler)),

		// Profile and avatars.
		"GET /api/profile":          router.NewChain(http.HandlerFunc(app.GetProfileHandler)),
		"PUT /api/profile":          router.NewChain(http.HandlerFunc(app.UpdateProfileHandler)),
		"POST /api/avatar":          router.NewChain(http.HandlerFunc(app.UploadAvatarHandler)),
		"GET /api/avatars/{key...}": router.NewChain(http.HandlerFunc(app.ServeAvatarHandler)),

		// Posts.
		"GET /api/posts":         router.NewChain(http.HandlerFunc(app.ListPostsHandler)),
		"POST /api/posts":        router.NewChain(http.HandlerFunc(app.CreatePostHandler)),
		"GET /api/posts/{id}":    router.NewChain(http.HandlerFunc(app.GetPostHandler)),
		"PUT /api/posts/{id}":    router.NewChain(http.HandlerFunc(app.UpdatePostHandler)),
		"DELETE /api/posts/{id}": router.NewChain(http.HandlerFunc(app.DeletePostHandler)),
	}

	router.Register(app.Router(), chains)
}
