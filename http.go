package accounts

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

// Cookie names for the token pair
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type RouteAuthenticator struct {
	auth                  Authenticator
	validator             TokenValidator
	cfg                   Config
	cookieDuration        time.Duration
	refreshCookieDuration time.Duration
	Logger                Logger
	ErrorHandler          func(c *fiber.Ctx, err error) error
}

type tokenServiceProvider interface {
	TokenService() TokenService
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetAccessTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetAccessTokenExpiration()) * time.Hour
	}

	refreshCookieDuration := cookieDuration
	if cfg.GetRefreshTokenExpiration() > 0 {
		refreshCookieDuration = time.Duration(cfg.GetRefreshTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:                   cfg,
		auth:                  auther,
		Logger:                defLogger{},
		cookieDuration:        cookieDuration,
		refreshCookieDuration: refreshCookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler

	switch v := auther.(type) {
	case TokenValidator:
		a.validator = v
	case tokenServiceProvider:
		a.validator = v.TokenService()
	default:
		return nil, errors.New("authenticator does not expose a token validator", errors.CategoryInternal)
	}

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Protected guards a route: it extracts the token from the cookie or the
// Authorization header, validates it, and re-resolves the identity from
// the store so tokens for deleted users are rejected.
func (a *RouteAuthenticator) Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   a.authErrorHandler,
		SuccessHandler: a.resolveIdentity,
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		TokenValidator: validatorAdapter{validator: a.validator},
	})
}

func (a *RouteAuthenticator) resolveIdentity(c *fiber.Ctx) error {
	claims, ok := GetFiberClaims(c, a.cfg.GetContextKey())
	if !ok {
		return a.authErrorHandler(c, ErrUnableToMapClaims)
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		return a.authErrorHandler(c, err)
	}

	identity, err := a.auth.IdentityFromSession(c.UserContext(), session)
	if err != nil {
		// A valid signature for a missing user still gets rejected, the
		// reason stays in the logs.
		a.Logger.Warn("Protected route identity resolution failed", "error", err)
		return a.authErrorHandler(c, errors.New("invalid or expired session", errors.CategoryAuth))
	}

	c.Locals("identity", identity)
	c.SetUserContext(WithClaimsContext(c.UserContext(), claims))

	return c.Next()
}

// Login runs the credential flow and sets the token pair as HTTP-only
// secure cookies on success.
func (a *RouteAuthenticator) Login(c *fiber.Ctx, payload LoginPayload) (*LoginResult, error) {
	result, err := a.auth.Login(c.UserContext(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return nil, err
	}

	a.setCookieToken(c, AccessTokenCookie, result.AccessToken, a.cookieDuration)
	a.setCookieToken(c, RefreshTokenCookie, result.RefreshToken, a.refreshCookieDuration)

	return result, nil
}

// Logout clears the persisted refresh token and expires both cookies.
// Cookies are cleared even if the store update fails.
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) error {
	var err error
	if claims, ok := GetFiberClaims(c, a.cfg.GetContextKey()); ok {
		err = a.auth.Logout(c.UserContext(), claims.UserID())
	}

	a.cookieDel(c, AccessTokenCookie)
	a.cookieDel(c, RefreshTokenCookie)

	return err
}

func (a *RouteAuthenticator) authErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error

	if IsTokenExpiredError(err) {
		richErr = ErrTokenExpired
	} else if IsMalformedError(err) {
		richErr = ErrTokenMalformed
	} else if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
			WithCode(errors.CodeUnauthorized)
	}

	return a.ErrorHandler(c, richErr)
}

func (a *RouteAuthenticator) setCookieToken(c *fiber.Ctx, name, val string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := statusFromCategory(richErr.Category)

	return c.Status(status).JSON(APIResponse{
		Status:  status,
		Message: richErr.Message,
	})
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth, errors.CategoryAuthz:
		return fiber.StatusUnauthorized
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// GetFiberClaims extracts the AuthClaims the middleware stored on the
// request under the given context key.
func GetFiberClaims(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user"
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// IdentityFromFiber returns the store-resolved identity set by Protected.
func IdentityFromFiber(c *fiber.Ctx) (Identity, bool) {
	raw := c.Locals("identity")
	if raw == nil {
		return nil, false
	}
	identity, ok := raw.(Identity)
	return identity, ok
}

type validatorAdapter struct {
	validator TokenValidator
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
