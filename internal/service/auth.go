package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jaekwang-park/homework-api/internal/identity"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/repository"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type PasswordStrength string

const (
	StrengthNone   PasswordStrength = ""
	StrengthWeak   PasswordStrength = "weak"
	StrengthMedium PasswordStrength = "medium"
	StrengthStrong PasswordStrength = "strong"
)

// RatePassword grades a password by length only.
func RatePassword(pw string) PasswordStrength {
	switch n := len(pw); {
	case n == 0:
		return StrengthNone
	case n < MinPasswordLength:
		return StrengthWeak
	case n < 10:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}

type AuthService struct {
	provider identity.Provider
	users    repository.UserRepository
}

func NewAuthService(provider identity.Provider, users repository.UserRepository) *AuthService {
	return &AuthService{provider: provider, users: users}
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

type SignUpOutput struct {
	UserSub      string `json:"user_sub"`
	Confirmed    bool   `json:"confirmed"`
	CodeDelivery string `json:"code_delivery"`
}

type LoginOutput struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ValidateSignUp applies the registration rules in order: all fields
// present, email shape, minimum length, matching confirmation.
func ValidateSignUp(input SignUpInput) error {
	if input.Email == "" || input.Password == "" || input.ConfirmPassword == "" {
		return fmt.Errorf("%w: please fill in all fields", ErrValidation)
	}
	if !emailPattern.MatchString(input.Email) {
		return fmt.Errorf("%w: %w", ErrValidation, identity.ErrInvalidEmail)
	}
	if len(input.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password should be at least %d characters: %w", ErrValidation, MinPasswordLength, identity.ErrWeakPassword)
	}
	if input.Password != input.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	return nil
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := ValidateSignUp(input); err != nil {
		return SignUpOutput{}, err
	}

	reg, err := s.provider.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		return SignUpOutput{}, err
	}
	return SignUpOutput{
		UserSub:      reg.Subject,
		Confirmed:    reg.Confirmed,
		CodeDelivery: reg.CodeDelivery,
	}, nil
}

func (s *AuthService) ConfirmSignUp(ctx context.Context, email, code string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrValidation)
	}
	return s.provider.ConfirmSignUp(ctx, email, code)
}

func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	return s.provider.ResendCode(ctx, email)
}

// Login signs in and makes sure a user row exists for the token subject.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginOutput, error) {
	if email == "" || password == "" {
		return LoginOutput{}, fmt.Errorf("%w: please enter both email and password", ErrValidation)
	}

	tokens, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return LoginOutput{}, err
	}

	sub, err := subjectOf(tokens.IDToken)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if _, err := s.users.GetOrCreate(ctx, sub, email); err != nil {
		return LoginOutput{}, fmt.Errorf("%w: failed to get or create user: %w", ErrStoreOperation, err)
	}

	return loginOutput(tokens), nil
}

func (s *AuthService) Refresh(ctx context.Context, email, refreshToken string) (LoginOutput, error) {
	if email == "" {
		return LoginOutput{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if refreshToken == "" {
		return LoginOutput{}, fmt.Errorf("%w: refresh_token is required", ErrValidation)
	}

	tokens, err := s.provider.Refresh(ctx, email, refreshToken)
	if err != nil {
		return LoginOutput{}, err
	}
	out := loginOutput(tokens)
	out.RefreshToken = ""
	return out, nil
}

// Logout revokes the session. Any provider failure is reported as ErrAuth.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: access_token is required", ErrValidation)
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return nil
}

// CurrentUser loads the user row behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("%w: failed to load user: %w", ErrStoreOperation, err)
	}
	return u, nil
}

func loginOutput(t identity.Tokens) LoginOutput {
	return LoginOutput{
		IDToken:      t.IDToken,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
	}
}

// subjectOf reads the sub claim of a token just issued by the provider. The
// signature is not checked here.
func subjectOf(idToken string) (string, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return "", errors.New("invalid id token format")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode id token payload: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("failed to parse id token claims: %w", err)
	}
	if claims.Sub == "" {
		return "", errors.New("sub claim missing from id token")
	}
	return claims.Sub, nil
}
