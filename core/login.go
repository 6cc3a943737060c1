package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// LoginService orchestrates a login: directory lookup first, then the identity
// provider. It keeps no state between calls and never retries.
type LoginService struct {
	directory Directory
	provider  IdentityProvider
}

func NewLoginService(directory Directory, provider IdentityProvider) *LoginService {
	return &LoginService{directory: directory, provider: provider}
}

// Login returns a TokenBundle, or an error wrapping ErrBadRequest,
// ErrUnknownUser or ErrAuthFailed. Store and provider causes are logged, not
// returned in a form callers can tell apart.
func (s *LoginService) Login(ctx context.Context, cred Credential) (TokenBundle, error) {
	logger := zerolog.Ctx(ctx)
	if err := cred.Validate(); err != nil {
		return TokenBundle{}, err
	}

	emp, err := s.directory.FindEmployee(ctx, cred.Username)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			logger.Info().Str("username", cred.Username).Msg("login for unregistered employee")
			return TokenBundle{}, ErrUnknownUser
		}
		logger.Error().Err(err).Str("username", cred.Username).Msg("directory lookup failed")
		return TokenBundle{}, fmt.Errorf("%w: directory lookup", ErrAuthFailed)
	}

	tokens, err := s.provider.Authenticate(ctx, cred.Username, cred.Password)
	if err != nil {
		logger.Warn().Err(err).Str("username", cred.Username).Msg("identity provider rejected login")
		return TokenBundle{}, fmt.Errorf("%w: provider", ErrAuthFailed)
	}

	logger.Info().Str("username", cred.Username).Int64("employee_id", emp.EmployeeID).Msg("login succeeded")
	return NewTokenBundle(tokens, emp), nil
}
