package accounts

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type Auther struct {
	provider       IdentityProvider
	users          Users
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, users Users, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetAccessSigningKey()),
		[]byte(opts.GetRefreshSigningKey()),
		opts.GetAccessTokenExpiration(),
		opts.GetRefreshTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		users:        users,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService sets a custom token service.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	s.tokenService = service
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the given credentials, mints an access/refresh token
// pair, and persists the refresh token on the user record. On any
// persistence failure no tokens are returned.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if identifier == "" || password == "" {
		return nil, errors.New("identifier and password are required", errors.CategoryValidation)
	}

	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrIdentityNotFound
	}

	accessToken, err := s.tokenService.GenerateAccessToken(identity)
	if err != nil {
		s.logger.Error("Login access token generation error", "error", err)
		return nil, err
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken(identity)
	if err != nil {
		s.logger.Error("Login refresh token generation error", "error", err)
		return nil, err
	}

	uid, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity has an invalid id")
	}

	if err := s.users.StoreRefreshToken(ctx, uid, refreshToken); err != nil {
		s.logger.Error("Login refresh token persistence error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	user, err := s.users.GetByID(ctx, identity.ID())
	if err != nil {
		s.logger.Error("Login user fetch error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user after login")
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Sanitized(),
	}, nil
}

// Logout clears the refresh token stored for the user. Logging out a
// user without a stored token is not an error.
func (s *Auther) Logout(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid user id")
	}

	if err := s.users.ClearRefreshToken(ctx, uid); err != nil {
		s.logger.Error("Logout clear refresh token error", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear refresh token")
	}

	return nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())

	if err != nil {
		s.logger.Error("IdentityFromSession findidentity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}
