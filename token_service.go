package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService issues and validates the access/refresh token pair
type TokenService interface {
	GenerateAccessToken(identity Identity) (string, error)
	GenerateRefreshToken(identity Identity) (string, error)
	SignClaims(claims *JWTClaims, signingKey []byte) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ValidateRefresh(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	accessSigningKey  []byte
	refreshSigningKey []byte
	accessExpiration  int
	refreshExpiration int
	issuer            string
	audience          jwt.ClaimStrings
	logger            Logger
}

// NewTokenService creates a new TokenService instance. Expirations are in
// hours and apply to the access and refresh tokens respectively.
func NewTokenService(accessKey, refreshKey []byte, accessExpiration, refreshExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessSigningKey:  accessKey,
		refreshSigningKey: refreshKey,
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
		issuer:            issuer,
		audience:          audience,
		logger:            logger,
	}
}

// GenerateAccessToken creates a short lived JWT carrying the identity's
// username and email alongside the subject
func (ts *TokenServiceImpl) GenerateAccessToken(identity Identity) (string, error) {
	claims := ts.newClaims(identity.ID(), ts.accessExpiration)
	claims.TokenUse = TokenTypeAccess
	claims.Uname = identity.Username()
	claims.UEmail = identity.Email()

	return ts.SignClaims(claims, ts.accessSigningKey)
}

// GenerateRefreshToken creates a longer lived JWT carrying only the subject
func (ts *TokenServiceImpl) GenerateRefreshToken(identity Identity) (string, error) {
	claims := ts.newClaims(identity.ID(), ts.refreshExpiration)
	claims.TokenUse = TokenTypeRefresh

	return ts.SignClaims(claims, ts.refreshSigningKey)
}

// SignClaims signs arbitrary JWT claims using the given signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims, signingKey []byte) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, ts.accessSigningKey, TokenTypeAccess)
}

// ValidateRefresh parses and validates a refresh token
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (AuthClaims, error) {
	return ts.validate(tokenString, ts.refreshSigningKey, TokenTypeRefresh)
}

func (ts *TokenServiceImpl) validate(tokenString string, signingKey []byte, tokenUse string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrUnableToDecodeSession
	}

	if claims.TokenUse != tokenUse {
		ts.logger.Error("TokenService validate token use mismatch", "want", tokenUse, "got", claims.TokenUse)
		return nil, ErrTokenMalformed
	}

	// A token minted for any of the configured audiences is acceptable.
	// jwt.WithAudience only checks a single value, so the list is checked here.
	if len(ts.audience) > 0 && !ts.matchesAudience(claims.RegisteredClaims.Audience) {
		ts.logger.Error("TokenService validate audience mismatch", "want", ts.audience, "got", claims.RegisteredClaims.Audience)
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenServiceImpl) matchesAudience(aud jwt.ClaimStrings) bool {
	for _, expected := range ts.audience {
		for _, got := range aud {
			if got == expected {
				return true
			}
		}
	}
	return false
}

func (ts *TokenServiceImpl) newClaims(subject string, expiration int) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiration) * time.Hour)),
		},
		UID: subject,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}
