package middleware

import (
	"context"
	"net/http"
)

// userKey is unexported so no other package can set or shadow the
// authenticated user.
type userKey struct{}

// SetUserID stores the resolved owner id of the caller.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserIDFrom returns the owner id stored by SetUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userKey{}).(string)
	return v, ok && v != ""
}

func GetUserID(r *http.Request) string {
	v, _ := UserIDFrom(r.Context())
	return v
}
