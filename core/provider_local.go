package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const localTokenTTL = time.Hour

// LocalProvider is a development identity provider: bcrypt hashes from
// employee_credentials and HS256 tokens signed with a shared secret.
type LocalProvider struct {
	creds    CredentialRepository
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewLocalProvider(creds CredentialRepository, cfg Config) *LocalProvider {
	return &LocalProvider{
		creds:    creds,
		secret:   []byte(cfg.LocalTokenSecret),
		issuer:   cfg.LocalIssuer,
		audience: firstNonEmpty(cfg.ClientID, "employee-portal"),
		now:      time.Now,
	}
}

func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (Tokens, error) {
	hash, err := p.creds.FindHash(ctx, username)
	if err != nil {
		return Tokens{}, fmt.Errorf("find credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Tokens{}, fmt.Errorf("compare password: %w", err)
	}

	now := p.now()
	idToken, err := p.sign(username, "id", now)
	if err != nil {
		return Tokens{}, err
	}
	accessToken, err := p.sign(username, "access", now)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refresh,
		ExpiresIn:    int32(localTokenTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

type localClaims struct {
	TokenUse string `json:"token_use"`
	Username string `json:"cognito:username"`
	jwt.RegisteredClaims
}

func (p *LocalProvider) sign(username, use string, now time.Time) (string, error) {
	claims := localClaims{
		TokenUse: use,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   username,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(localTokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", use, err)
	}
	return signed, nil
}

// LocalTokenVerifier validates ID tokens minted by LocalProvider.
type LocalTokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewLocalTokenVerifier(cfg Config) *LocalTokenVerifier {
	return &LocalTokenVerifier{
		secret: []byte(cfg.LocalTokenSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.LocalIssuer),
			jwt.WithAudience(firstNonEmpty(cfg.ClientID, "employee-portal")),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *LocalTokenVerifier) Verify(_ context.Context, rawToken string) (Claims, error) {
	var claims localClaims
	_, err := v.parser.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.TokenUse != "id" {
		return Claims{}, fmt.Errorf("%w: token_use %q", ErrUnauthorized, claims.TokenUse)
	}
	if claims.Username == "" {
		return Claims{}, errors.Join(ErrUnauthorized, errors.New("token has no username"))
	}
	return Claims{Subject: claims.Subject, Username: claims.Username}, nil
}
