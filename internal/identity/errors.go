package identity

import (
	"errors"
	"net/http"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotConfirmed   = errors.New("account not confirmed")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrCodeExpired        = errors.New("confirmation code expired")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrInvalidParameter   = errors.New("invalid parameter")
)

// ErrorInfo is the HTTP rendering of an identity failure.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

var errorTable = []struct {
	err  error
	info ErrorInfo
}{
	{ErrEmailTaken, ErrorInfo{http.StatusConflict, "EMAIL_TAKEN", "This email is already registered"}},
	{ErrInvalidEmail, ErrorInfo{http.StatusBadRequest, "INVALID_EMAIL", "Please enter a valid email address"}},
	{ErrWeakPassword, ErrorInfo{http.StatusBadRequest, "WEAK_PASSWORD", "Password is too weak"}},
	{ErrInvalidCredentials, ErrorInfo{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}},
	{ErrUserNotConfirmed, ErrorInfo{http.StatusForbidden, "USER_NOT_CONFIRMED", "Please confirm your email first"}},
	{ErrInvalidCode, ErrorInfo{http.StatusBadRequest, "INVALID_CODE", "Invalid confirmation code"}},
	{ErrCodeExpired, ErrorInfo{http.StatusBadRequest, "CODE_EXPIRED", "Confirmation code has expired"}},
	{ErrTooManyRequests, ErrorInfo{http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many attempts, try again later"}},
	{ErrInvalidParameter, ErrorInfo{http.StatusBadRequest, "INVALID_PARAMETER", "Invalid request"}},
}

// LookupError reports the HTTP rendering of err when it wraps one of the
// identity sentinels.
func LookupError(err error) (ErrorInfo, bool) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.info, true
		}
	}
	return ErrorInfo{}, false
}
