package httputil

// Machine-readable error codes returned alongside error messages so that
// clients can branch without parsing human-readable text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInternalError      = "internal_error"
	CodeTooManyRequests    = "too_many_requests"

	CodeEmailRequired          = "email_required"
	CodePasswordRequired       = "password_required"
	CodePasswordTooShort       = "password_too_short"
	CodeInvalidEmailFormat     = "invalid_email_format"
	CodeEmailAlreadyRegistered = "email_already_registered"

	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeUserNotFound       = "user_not_found"

	CodeMissingAuth       = "missing_authentication"
	CodeInvalidAuthHeader = "invalid_authorization_header"
	CodeTokenExpired      = "token_expired"
	CodeInvalidToken      = "invalid_token"
	CodeWrongTokenType    = "wrong_token_type"

	CodePostNotFound = "post_not_found"
	CodeUploadFailed = "upload_failed"
)
