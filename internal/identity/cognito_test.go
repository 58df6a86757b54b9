package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

type fakeCognito struct {
	signUpFn        func(*cip.SignUpInput) (*cip.SignUpOutput, error)
	confirmFn       func(*cip.ConfirmSignUpInput) (*cip.ConfirmSignUpOutput, error)
	resendFn        func(*cip.ResendConfirmationCodeInput) (*cip.ResendConfirmationCodeOutput, error)
	initiateAuthFn  func(*cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error)
	globalSignOutFn func(*cip.GlobalSignOutInput) (*cip.GlobalSignOutOutput, error)
}

func (f *fakeCognito) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	return f.signUpFn(in)
}

func (f *fakeCognito) ConfirmSignUp(_ context.Context, in *cip.ConfirmSignUpInput, _ ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	return f.confirmFn(in)
}

func (f *fakeCognito) ResendConfirmationCode(_ context.Context, in *cip.ResendConfirmationCodeInput, _ ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error) {
	return f.resendFn(in)
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	return f.initiateAuthFn(in)
}

func (f *fakeCognito) GlobalSignOut(_ context.Context, in *cip.GlobalSignOutInput, _ ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error) {
	return f.globalSignOutFn(in)
}

func apiError(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg}
}

func TestMapAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"username exists", apiError("UsernameExistsException", "exists"), ErrEmailTaken},
		{"weak password", apiError("InvalidPasswordException", "too short"), ErrWeakPassword},
		{"bad credentials", apiError("NotAuthorizedException", "Incorrect username or password."), ErrInvalidCredentials},
		{"unknown user", apiError("UserNotFoundException", "no user"), ErrInvalidCredentials},
		{"unconfirmed", apiError("UserNotConfirmedException", "confirm"), ErrUserNotConfirmed},
		{"code mismatch", apiError("CodeMismatchException", "bad code"), ErrInvalidCode},
		{"code expired", apiError("ExpiredCodeException", "expired"), ErrCodeExpired},
		{"throttled", apiError("LimitExceededException", "slow down"), ErrTooManyRequests},
		{"invalid email", apiError("InvalidParameterException", "Invalid email address format."), ErrInvalidEmail},
		{"invalid parameter", apiError("InvalidParameterException", "1 validation error detected"), ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapAPIError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapAPIError() = %v, want wrapping %v", got, tt.want)
			}
		})
	}

	if mapAPIError(nil) != nil {
		t.Error("expected nil for nil error")
	}
	if got := mapAPIError(apiError("InternalErrorException", "oops")); got == nil {
		t.Error("expected unknown API errors to pass through")
	}
}

func TestCognito_SignUpSendsSecretHash(t *testing.T) {
	var got *cip.SignUpInput
	c := &Cognito{
		clientID:     "client",
		clientSecret: "secret",
		api: &fakeCognito{signUpFn: func(in *cip.SignUpInput) (*cip.SignUpOutput, error) {
			got = in
			return &cip.SignUpOutput{
				UserSub:             aws.String("sub-1"),
				CodeDeliveryDetails: &types.CodeDeliveryDetailsType{DeliveryMedium: types.DeliveryMediumTypeEmail},
			}, nil
		}},
	}

	reg, err := c.SignUp(context.Background(), "a@b.co", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Subject != "sub-1" || reg.Confirmed || reg.CodeDelivery != "EMAIL" {
		t.Errorf("unexpected registration: %+v", reg)
	}
	if aws.ToString(got.SecretHash) != SecretHash("a@b.co", "client", "secret") {
		t.Error("expected secret hash on sign-up")
	}
	if len(got.UserAttributes) != 1 || aws.ToString(got.UserAttributes[0].Value) != "a@b.co" {
		t.Errorf("expected email attribute, got %+v", got.UserAttributes)
	}
}

func TestCognito_SignInWithoutSecret(t *testing.T) {
	c := &Cognito{
		clientID: "client",
		api: &fakeCognito{initiateAuthFn: func(in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
			if in.AuthFlow != types.AuthFlowTypeUserPasswordAuth {
				t.Errorf("unexpected flow %s", in.AuthFlow)
			}
			if _, ok := in.AuthParameters["SECRET_HASH"]; ok {
				t.Error("did not expect SECRET_HASH without a client secret")
			}
			return &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{
				IdToken:     aws.String("id"),
				AccessToken: aws.String("access"),
				ExpiresIn:   3600,
				TokenType:   aws.String("Bearer"),
			}}, nil
		}},
	}

	tokens, err := c.SignIn(context.Background(), "a@b.co", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.IDToken != "id" || tokens.AccessToken != "access" || tokens.ExpiresIn != 3600 {
		t.Errorf("unexpected tokens: %+v", tokens)
	}
}

func TestCognito_SignInChallengeIsError(t *testing.T) {
	c := &Cognito{
		clientID: "client",
		api: &fakeCognito{initiateAuthFn: func(*cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
			return &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}, nil
		}},
	}
	if _, err := c.SignIn(context.Background(), "a@b.co", "secret1"); err == nil {
		t.Fatal("expected error for unsupported challenge")
	}
}

func TestCognito_SignOutMapsErrors(t *testing.T) {
	c := &Cognito{
		api: &fakeCognito{globalSignOutFn: func(*cip.GlobalSignOutInput) (*cip.GlobalSignOutOutput, error) {
			return nil, apiError("NotAuthorizedException", "Access Token has been revoked")
		}},
	}
	if err := c.SignOut(context.Background(), "tok"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
