package app

import (
	"strings"

	"github.com/charlesng35/qualitree/internal/auth"
	"github.com/charlesng35/qualitree/internal/database"
)

// DatabaseOptions converts the database section into database.Config.
func (c DatabaseConfig) DatabaseOptions() database.Config {
	trim := strings.TrimSpace
	return database.Config{
		Driver:   strings.ToLower(trim(c.Driver)),
		Path:     trim(c.Path),
		DSN:      trim(c.DSN),
		Host:     trim(c.Host),
		Port:     c.Port,
		Name:     trim(c.Name),
		User:     trim(c.User),
		Password: c.Password,
		Options:  c.Options,
		Pool: database.PoolConfig{
			MaxOpenConns:    c.Pool.MaxOpenConns,
			MaxIdleConns:    c.Pool.MaxIdleConns,
			ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		},
		LogLevel:      c.LogLevel,
		SlowThreshold: c.SlowThreshold,
	}
}

// JWTServiceConfig converts the auth section into auth.JWTConfig.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	cfg := auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		Audience:       strings.TrimSpace(c.JWT.Audience),
		AccessTokenTTL: c.JWT.TTL,
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return cfg
}
