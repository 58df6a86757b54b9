package identity_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jaekwang-park/homework-api/internal/identity"
)

func TestLookupError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{identity.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{identity.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
		{identity.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
		{identity.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{identity.ErrUserNotConfirmed, http.StatusForbidden, "USER_NOT_CONFIRMED"},
		{identity.ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE"},
		{identity.ErrCodeExpired, http.StatusBadRequest, "CODE_EXPIRED"},
		{identity.ErrTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{identity.ErrInvalidParameter, http.StatusBadRequest, "INVALID_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			info, ok := identity.LookupError(fmt.Errorf("provider said no: %w", tt.err))
			if !ok {
				t.Fatalf("expected a match for %v", tt.err)
			}
			if info.Status != tt.wantStatus || info.Code != tt.wantCode {
				t.Errorf("got %d %s, want %d %s", info.Status, info.Code, tt.wantStatus, tt.wantCode)
			}
			if info.Message == "" {
				t.Error("expected a user-facing message")
			}
		})
	}
}

func TestLookupError_Unknown(t *testing.T) {
	if _, ok := identity.LookupError(errors.New("boom")); ok {
		t.Error("expected no match for unknown error")
	}
}
