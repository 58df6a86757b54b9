// Package identity is the account boundary: registration, confirmation,
// sign-in, token refresh and sign-out against an external identity provider.
package identity

import "context"

type Provider interface {
	SignUp(ctx context.Context, email, password string) (Registration, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	// Refresh exchanges a refresh token. email is needed only to compute the
	// client secret hash.
	Refresh(ctx context.Context, email, refreshToken string) (Tokens, error)
	// SignOut revokes every token issued to the holder of accessToken.
	SignOut(ctx context.Context, accessToken string) error
}

// Registration is the result of a sign-up. Confirmed is false until the
// emailed code is submitted.
type Registration struct {
	Subject      string
	Confirmed    bool
	CodeDelivery string
}

type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}
