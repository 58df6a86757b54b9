package identity_test

import (
	"testing"

	"github.com/jaekwang-park/homework-api/internal/identity"
)

func TestSecretHash(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{"email username", "student@example.com", "gR6DQOoK7Uba+FO6d7ClfyM2rSipJGLrPgv8IpcWWIU="},
		{"empty username", "", "Y3BuIdoagiTf7v5bH3+LA1tIEe2M65DN0QxyD5K/vwQ="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := identity.SecretHash(tt.username, "abc123clientid", "supersecret")
			if got != tt.want {
				t.Errorf("SecretHash() = %q, want %q", got, tt.want)
			}
		})
	}
}
