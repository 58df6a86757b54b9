package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// cognitoAPI is the subset of the Cognito client used here.
type cognitoAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, opts ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, opts ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, opts ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, opts ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, opts ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// Cognito implements Provider against an AWS Cognito user pool app client.
// Email is used as the username.
type Cognito struct {
	api          cognitoAPI
	clientID     string
	clientSecret string
}

func NewCognito(ctx context.Context, region, clientID, clientSecret string) (*Cognito, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Cognito{
		api:          cip.NewFromConfig(cfg),
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

func (c *Cognito) secretHash(email string) *string {
	if c.clientSecret == "" {
		return nil
	}
	return aws.String(SecretHash(email, c.clientID, c.clientSecret))
}

func (c *Cognito) SignUp(ctx context.Context, email, password string) (Registration, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: c.secretHash(email),
		Username:   aws.String(email),
		Password:   aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return Registration{}, mapAPIError(err)
	}

	reg := Registration{
		Subject:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}
	if d := out.CodeDeliveryDetails; d != nil {
		reg.CodeDelivery = string(d.DeliveryMedium)
	}
	return reg, nil
}

func (c *Cognito) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		SecretHash:       c.secretHash(email),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	return mapAPIError(err)
}

func (c *Cognito) ResendCode(ctx context.Context, email string) error {
	_, err := c.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: c.secretHash(email),
		Username:   aws.String(email),
	})
	return mapAPIError(err)
}

func (c *Cognito) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	return c.initiate(ctx, types.AuthFlowTypeUserPasswordAuth, email, map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	})
}

func (c *Cognito) Refresh(ctx context.Context, email, refreshToken string) (Tokens, error) {
	return c.initiate(ctx, types.AuthFlowTypeRefreshTokenAuth, email, map[string]string{
		"REFRESH_TOKEN": refreshToken,
	})
}

func (c *Cognito) initiate(ctx context.Context, flow types.AuthFlowType, email string, params map[string]string) (Tokens, error) {
	if h := c.secretHash(email); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       aws.String(c.clientID),
		AuthFlow:       flow,
		AuthParameters: params,
	})
	if err != nil {
		return Tokens{}, mapAPIError(err)
	}
	r := out.AuthenticationResult
	if r == nil {
		// A challenge (MFA, new password) is not supported by this client.
		return Tokens{}, fmt.Errorf("cognito: unsupported auth challenge %q", out.ChallengeName)
	}
	return Tokens{
		IDToken:      aws.ToString(r.IdToken),
		AccessToken:  aws.ToString(r.AccessToken),
		RefreshToken: aws.ToString(r.RefreshToken),
		ExpiresIn:    r.ExpiresIn,
		TokenType:    aws.ToString(r.TokenType),
	}, nil
}

func (c *Cognito) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return mapAPIError(err)
}

// mapAPIError converts Cognito API errors to identity sentinels. nil stays nil.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("cognito: %w", err)
	}

	var sentinel error
	switch apiErr.ErrorCode() {
	case "UsernameExistsException", "AliasExistsException":
		sentinel = ErrEmailTaken
	case "InvalidPasswordException":
		sentinel = ErrWeakPassword
	case "NotAuthorizedException", "UserNotFoundException":
		sentinel = ErrInvalidCredentials
	case "UserNotConfirmedException":
		sentinel = ErrUserNotConfirmed
	case "CodeMismatchException":
		sentinel = ErrInvalidCode
	case "ExpiredCodeException":
		sentinel = ErrCodeExpired
	case "TooManyRequestsException", "LimitExceededException", "TooManyFailedAttemptsException":
		sentinel = ErrTooManyRequests
	case "InvalidParameterException":
		sentinel = ErrInvalidParameter
		if strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "email") {
			sentinel = ErrInvalidEmail
		}
	default:
		return fmt.Errorf("cognito %s: %w", apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), sentinel)
}

var _ Provider = (*Cognito)(nil)
