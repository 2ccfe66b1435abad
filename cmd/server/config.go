package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-accounts/storage"
)

// Config holds the service configuration, loaded from the environment.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8572"`
	DSN      string `env:"DATABASE_DSN" envDefault:"file:accounts.db?cache=shared&mode=rwc"`

	AccessTokenSecret  string   `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string   `env:"REFRESH_TOKEN_SECRET,required"`
	AccessTokenHours   int      `env:"ACCESS_TOKEN_EXPIRATION" envDefault:"24"`
	RefreshTokenHours  int      `env:"REFRESH_TOKEN_EXPIRATION" envDefault:"240"`
	TokenIssuer        string   `env:"TOKEN_ISSUER" envDefault:"go-accounts"`
	TokenAudience      []string `env:"TOKEN_AUDIENCE" envSeparator:","`
	ContextKey         string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenLookup        string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"cookie:accessToken,header:Authorization"`
	AuthScheme         string   `env:"AUTH_SCHEME" envDefault:"Bearer"`

	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3Bucket        string `env:"S3_BUCKET,required"`
	S3AccessKey     string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey     string `env:"S3_SECRET_KEY,required"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL,required"`
}

// ParseConfig loads configuration from environment variables.
func ParseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) GetAccessSigningKey() string {
	return c.AccessTokenSecret
}

func (c *Config) GetRefreshSigningKey() string {
	return c.RefreshTokenSecret
}

func (c *Config) GetSigningMethod() string {
	return "HS256"
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetAccessTokenExpiration() int {
	return c.AccessTokenHours
}

func (c *Config) GetRefreshTokenExpiration() int {
	return c.RefreshTokenHours
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *Config) GetIssuer() string {
	return c.TokenIssuer
}

func (c *Config) GetAudience() []string {
	return c.TokenAudience
}

func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Region:        c.S3Region,
		Endpoint:      c.S3Endpoint,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		PublicBaseURL: c.S3PublicBaseURL,
	}
}
