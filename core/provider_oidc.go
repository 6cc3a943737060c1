package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCPasswordProvider authenticates with the OAuth2 resource-owner password
// grant against an OIDC issuer. The issuer must return an id_token.
type OIDCPasswordProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCPasswordProvider wires an explicit oauth2 config. A nil verifier
// skips id_token verification.
func NewOIDCPasswordProvider(conf *oauth2.Config, verifier *oidc.IDTokenVerifier) *OIDCPasswordProvider {
	return &OIDCPasswordProvider{oauth: conf, verifier: verifier}
}

// DiscoverOIDC resolves the issuer's discovery document and returns a password
// provider plus a verifier for bearer tokens issued to cfg.ClientID.
func DiscoverOIDC(ctx context.Context, issuer string, cfg Config) (*OIDCPasswordProvider, *OIDCTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.OIDCClientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess},
	}
	return NewOIDCPasswordProvider(conf, verifier), NewOIDCTokenVerifier(verifier), nil
}

func (p *OIDCPasswordProvider) Authenticate(ctx context.Context, username, password string) (Tokens, error) {
	tok, err := p.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return Tokens{}, fmt.Errorf("password grant: %w", err)
	}
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return Tokens{}, errors.New("password grant: no id_token in response")
	}
	if p.verifier != nil {
		if _, err := p.verifier.Verify(ctx, rawID); err != nil {
			return Tokens{}, fmt.Errorf("verify id_token: %w", err)
		}
	}
	var expiresIn int32
	if !tok.Expiry.IsZero() {
		expiresIn = int32(time.Until(tok.Expiry).Seconds())
	}
	return Tokens{
		IDToken:      rawID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    tok.TokenType,
	}, nil
}

// OIDCTokenVerifier checks bearer ID tokens with go-oidc. It also serves
// Cognito, whose user pools publish a discovery document.
type OIDCTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCTokenVerifier(v *oidc.IDTokenVerifier) *OIDCTokenVerifier {
	return &OIDCTokenVerifier{verifier: v}
}

func (v *OIDCTokenVerifier) Verify(ctx context.Context, rawToken string) (Claims, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	var extra struct {
		CognitoUsername   string `json:"cognito:username"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := tok.Claims(&extra); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return Claims{
		Subject:  tok.Subject,
		Username: firstNonEmpty(extra.CognitoUsername, extra.PreferredUsername, tok.Subject),
	}, nil
}
