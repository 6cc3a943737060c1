package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoAPI is the subset of the Cognito client used by CognitoProvider.
type CognitoAPI interface {
	AdminInitiateAuth(ctx context.Context, params *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
}

// CognitoProvider authenticates against a Cognito user pool with the
// ADMIN_USER_PASSWORD_AUTH flow.
type CognitoProvider struct {
	api        CognitoAPI
	userPoolID string
	clientID   string
}

func NewCognitoProvider(api CognitoAPI, cfg Config) *CognitoProvider {
	return &CognitoProvider{api: api, userPoolID: cfg.UserPoolID, clientID: cfg.ClientID}
}

func (p *CognitoProvider) Authenticate(ctx context.Context, username, password string) (Tokens, error) {
	out, err := p.api.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId: aws.String(p.userPoolID),
		ClientId:   aws.String(p.clientID),
		AuthFlow:   ciptypes.AuthFlowTypeAdminUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return Tokens{}, fmt.Errorf("admin initiate auth: %w", err)
	}
	res := out.AuthenticationResult
	if res == nil {
		// A challenge (new password, MFA) is not something this flow completes.
		return Tokens{}, fmt.Errorf("admin initiate auth: unanswered challenge %q", out.ChallengeName)
	}
	if aws.ToString(res.IdToken) == "" {
		return Tokens{}, errors.New("admin initiate auth: empty id token")
	}
	return Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
		TokenType:    aws.ToString(res.TokenType),
	}, nil
}
