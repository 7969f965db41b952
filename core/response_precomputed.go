package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/guard"
)

// Standard response codes
const (
	// oks
	CodeOkAlreadyVerified        = "ok_already_verified"
	CodeOkEmailVerified          = "ok_email_verified"
	CodeOkVerificationRequested  = "ok_verification_requested"
	CodeOkPasswordResetRequested = "ok_password_reset_requested"
	CodeOkPasswordReset          = "ok_password_reset"
	CodeOkPasswordSet            = "ok_password_set"
	CodeOkPasswordChanged        = "ok_password_changed"
	CodeOkProviderLinked         = "ok_provider_linked"
	CodeOkProviderUnlinked       = "ok_provider_unlinked"
	CodeOkAccountDeleted         = "ok_account_deleted"
	CodeOkAvatarUploaded         = "ok_avatar_uploaded"

	// errors
	CodeErrorTokenGeneration          = "err_token_generation"
	CodeErrorInvalidRequest           = "err_invalid_input"
	CodeErrorInvalidCredentials       = "err_invalid_credentials"
	CodeErrorPasswordMismatch         = "err_password_mismatch"
	CodeErrorMissingFields            = "err_missing_fields"
	CodeErrorPasswordComplexity       = "err_password_complexity"
	CodeErrorEmailConflict            = "err_email_conflict"
	CodeErrorNotFound                 = "err_not_found"
	CodeErrorVerificationRequested    = "err_email_verification_already_requested"
	CodeErrorPasswordResetRequested   = "err_password_reset_already_requested"
	CodeErrorTooManyRequests          = "err_too_many_requests"
	CodeErrorServiceUnavailable       = "err_service_unavailable"
	CodeErrorNoAuthHeader             = "err_no_auth_header"
	CodeErrorInvalidTokenFormat       = "err_invalid_token_format"
	CodeErrorJwtInvalidSignMethod     = "err_invalid_sign_method"
	CodeErrorJwtTokenExpired          = "err_token_expired"
	CodeErrorJwtInvalidToken          = "err_invalid_token"
	CodeErrorJwtInvalidCallbackToken  = "err_invalid_callback_token"
	CodeErrorInvalidOAuth2Provider    = "err_invalid_oauth2_provider"
	CodeErrorOAuth2ExchangeFailed     = "err_oauth2_token_exchange_failed"
	CodeErrorOAuth2UserInfoFailed     = "err_oauth2_user_info_failed"
	CodeErrorOAuth2UserInfoProcessing = "err_oauth2_user_info_processing_failed"
	CodeErrorDatabase                 = "err_database_error"
	CodeErrorIpBlocked                = "err_ip_blocked"
	CodeErrorInvalidContentType       = "err_invalid_content_type"
	CodeErrorStorage                  = "err_storage"
	CodeErrorAvatarTooLarge           = "err_avatar_too_large"
	CodeErrorAvatarType               = "err_avatar_type"

	// errors surfaced by the credential consistency checks
	CodeErrorAlreadyHasPassword     = "err_already_has_password"
	CodeErrorCurrentPasswordInvalid = "err_current_password_invalid"
	CodeErrorNoPasswordToChange     = "err_no_password_to_change"
	CodeErrorLastCredential         = "err_last_credential"
	CodeErrorProviderTaken          = "err_provider_taken"
)

// precomputeBasicResponse marshals the response body once during package
// initialization. Handlers then write the stored bytes directly, avoiding
// repeated JSON marshaling during request handling.
func precomputeBasicResponse(status int, code, message string) jsonResponse {
	basic := JsonBasic{
		Status:  status,
		Code:    code,
		Message: message,
	}
	body, _ := json.Marshal(basic)
	return jsonResponse{status: status, body: body}
}

// Precomputed error and ok responses with status codes
var (
	// errors
	errorTokenGeneration          = precomputeBasicResponse(http.StatusInternalServerError, CodeErrorTokenGeneration, "Failed to generate authentication token")
	errorIpBlocked                = precomputeBasicResponse(http.StatusTooManyRequests, CodeErrorIpBlocked, "IP address has been blocked due to excessive requests. Please try again later")
	errorInvalidRequest           = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidRequest, "The request contains invalid data")
	errorInvalidCredentials       = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidCredentials, "Invalid credentials provided")
	errorPasswordMismatch         = precomputeBasicResponse(http.StatusBadRequest, CodeErrorPasswordMismatch, "Password and confirmation do not match")
	errorMissingFields            = precomputeBasicResponse(http.StatusBadRequest, CodeErrorMissingFields, "Required fields are missing")
	errorPasswordComplexity       = precomputeBasicResponse(http.StatusBadRequest, CodeErrorPasswordComplexity, "Password must be 8 to 20 characters with an upper case letter, a lower case letter and a digit")
	errorEmailConflict            = precomputeBasicResponse(http.StatusConflict, CodeErrorEmailConflict, "Email address is already registered")
	errorNotFound                 = precomputeBasicResponse(http.StatusNotFound, CodeErrorNotFound, "Requested resource not found")
	errorVerificationRequested    = precomputeBasicResponse(http.StatusConflict, CodeErrorVerificationRequested, "Email verification already requested")
	errorPasswordResetRequested   = precomputeBasicResponse(http.StatusConflict, CodeErrorPasswordResetRequested, "Password reset already requested")
	errorTooManyRequests          = precomputeBasicResponse(http.StatusTooManyRequests, CodeErrorTooManyRequests, "Too many requests, please try again later")
	errorServiceUnavailable       = precomputeBasicResponse(http.StatusServiceUnavailable, CodeErrorServiceUnavailable, "Service is temporarily unavailable")
	errorNoAuthHeader             = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorNoAuthHeader, "Authorization header is required")
	errorInvalidTokenFormat       = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidTokenFormat, "Invalid authorization token format")
	errorJwtInvalidSignMethod     = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorJwtInvalidSignMethod, "Invalid JWT signing method")
	errorJwtTokenExpired          = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorJwtTokenExpired, "Authentication token has expired")
	errorJwtInvalidToken          = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorJwtInvalidToken, "Invalid authentication token")
	errorJwtInvalidCallbackToken  = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorJwtInvalidCallbackToken, "Invalid or expired confirmation token")
	errorInvalidOAuth2Provider    = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidOAuth2Provider, "Invalid OAuth2 provider specified")
	errorOAuth2ExchangeFailed     = precomputeBasicResponse(http.StatusBadRequest, CodeErrorOAuth2ExchangeFailed, "Failed to exchange OAuth2 token")
	errorOAuth2UserInfoFailed     = precomputeBasicResponse(http.StatusBadRequest, CodeErrorOAuth2UserInfoFailed, "Failed to get user info from OAuth2 provider")
	errorOAuth2UserInfoProcessing = precomputeBasicResponse(http.StatusBadRequest, CodeErrorOAuth2UserInfoProcessing, "Failed to process user info from OAuth2 provider")
	errorDatabase                 = precomputeBasicResponse(http.StatusInternalServerError, CodeErrorDatabase, "Database error")
	errorInvalidContentType       = precomputeBasicResponse(http.StatusUnsupportedMediaType, CodeErrorInvalidContentType, "Unsupported media type")
	errorStorage                  = precomputeBasicResponse(http.StatusServiceUnavailable, CodeErrorStorage, "Object storage is temporarily unavailable")
	errorAvatarTooLarge           = precomputeBasicResponse(http.StatusRequestEntityTooLarge, CodeErrorAvatarTooLarge, "Avatar exceeds the maximum allowed size")
	errorAvatarType               = precomputeBasicResponse(http.StatusUnsupportedMediaType, CodeErrorAvatarType, "Avatar content type is not allowed")

	errorAlreadyHasPassword     = precomputeBasicResponse(http.StatusConflict, CodeErrorAlreadyHasPassword, "A password is already set for this account")
	errorCurrentPasswordInvalid = precomputeBasicResponse(http.StatusBadRequest, CodeErrorCurrentPasswordInvalid, "Current password is incorrect")
	errorNoPasswordToChange     = precomputeBasicResponse(http.StatusBadRequest, CodeErrorNoPasswordToChange, "No password is set for this account")
	errorLastCredential         = precomputeBasicResponse(http.StatusConflict, CodeErrorLastCredential, "Cannot remove the only remaining sign-in method")
	errorProviderTaken          = precomputeBasicResponse(http.StatusConflict, CodeErrorProviderTaken, "This provider account is already linked to another user")

	// oks
	okAlreadyVerified        = precomputeBasicResponse(http.StatusAccepted, CodeOkAlreadyVerified, "Email already verified - no further action needed")
	okEmailVerified          = precomputeBasicResponse(http.StatusOK, CodeOkEmailVerified, "Email verified successfully")
	okVerificationRequested  = precomputeBasicResponse(http.StatusAccepted, CodeOkVerificationRequested, "Verification email will be sent soon. Check your mailbox")
	okPasswordResetRequested = precomputeBasicResponse(http.StatusAccepted, CodeOkPasswordResetRequested, "Password reset instructions will be sent to your email if it exists in our system")
	okPasswordReset          = precomputeBasicResponse(http.StatusOK, CodeOkPasswordReset, "Password reset successfully")
	okPasswordSet            = precomputeBasicResponse(http.StatusOK, CodeOkPasswordSet, "Password set successfully")
	okPasswordChanged        = precomputeBasicResponse(http.StatusOK, CodeOkPasswordChanged, "Password changed successfully")
	okProviderLinked         = precomputeBasicResponse(http.StatusOK, CodeOkProviderLinked, "Provider linked successfully")
	okProviderUnlinked       = precomputeBasicResponse(http.StatusOK, CodeOkProviderUnlinked, "Provider unlinked successfully")
	okAccountDeleted         = precomputeBasicResponse(http.StatusOK, CodeOkAccountDeleted, "Account deleted")
)

// guardDenyResponse maps a deny reason to its precomputed response.
func guardDenyResponse(reason guard.Reason) jsonResponse {
	switch reason {
	case guard.ReasonAlreadyHasPassword:
		return errorAlreadyHasPassword
	case guard.ReasonCurrentSecretInvalid:
		return errorCurrentPasswordInvalid
	case guard.ReasonNoPasswordToChange:
		return errorNoPasswordToChange
	case guard.ReasonLastCredential:
		return errorLastCredential
	case guard.ReasonProviderTaken:
		return errorProviderTaken
	}
	return errorInvalidRequest
}

// storeErrorResponse maps the typed store errors from the authoritative
// re-check inside the write transaction. The store can report a conflict the
// snapshot-based check did not see when a concurrent request won the race.
func storeErrorResponse(err error) jsonResponse {
	switch {
	case errors.Is(err, db.ErrUserNotFound), errors.Is(err, db.ErrCredentialNotFound):
		return errorNotFound
	case errors.Is(err, db.ErrCredentialExists):
		return errorAlreadyHasPassword
	case errors.Is(err, db.ErrLastCredential):
		return errorLastCredential
	case errors.Is(err, db.ErrProviderTaken):
		return errorProviderTaken
	}
	return errorDatabase
}
