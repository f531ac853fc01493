package mockapi

import (
	"fmt"
	"time"
)

type Config struct {
	Addr               string        `mapstructure:"addr"`
	TokenIssuer        string        `mapstructure:"token_issuer"`
	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_token_expiry"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
	OTPExpiry          time.Duration `mapstructure:"otp_expiry"`
	// OTPRate limits the otp sending endpoints per client ip, e.g. "5-M".
	OTPRate string `mapstructure:"otp_rate"`
	// MaxSessions caps the live refresh tokens kept in memory.
	MaxSessions int `mapstructure:"max_sessions"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:               "127.0.0.1:8080",
		TokenIssuer:        "macropath-mock",
		AccessTokenSecret:  "mock-access-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "mock-refresh-secret",
		RefreshTokenExpiry: 30 * 24 * time.Hour,
		OTPExpiry:          10 * time.Minute,
		OTPRate:            "5-M",
		MaxSessions:        4096,
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("mock api `addr` is required")
	}
	if c.TokenIssuer == "" {
		return fmt.Errorf("mock api `token_issuer` is required")
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return fmt.Errorf("mock api token secrets are required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("mock api access and refresh secrets must differ")
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("mock api token expiries must be positive")
	}
	if c.OTPExpiry <= 0 {
		return fmt.Errorf("mock api `otp_expiry` must be positive")
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("mock api `max_sessions` must be positive")
	}
	return nil
}
