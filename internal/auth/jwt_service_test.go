package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.ErrorIs(t, err, errMissingSecret)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "qualitree",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	scopes := []string{ScopeWrite}
	token, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "ci-bot", Scopes: scopes})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	scopes[0] = "mutated"

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "ci-bot", claims.Subject)
	require.Equal(t, "qualitree", claims.Issuer)
	require.True(t, claims.HasScope(ScopeWrite))
	require.False(t, claims.HasScope("admin"))
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestGenerateAccessTokenRequiresSubject(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	_, err = svc.GenerateAccessToken(AccessTokenInput{Subject: "  "})
	require.ErrorIs(t, err, errMissingSubject)
}

func TestGenerateAccessTokenTTLOverride(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{Secret: "s", Clock: func() time.Time { return current }})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "alice", TTL: 5 * time.Minute})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(5*time.Minute)))
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", AccessTokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", AccessTokenTTL: time.Minute, Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateAccessTokenWrongIssuer(t *testing.T) {
	a, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "a"})
	require.NoError(t, err)
	b, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "b"})
	require.NoError(t, err)

	token, err := a.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)

	_, err = b.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestValidateAccessTokenAudience(t *testing.T) {
	api, err := NewJWTService(JWTConfig{Secret: "shared", Audience: "qualitree-api"})
	require.NoError(t, err)
	other, err := NewJWTService(JWTConfig{Secret: "shared", Audience: "reporting"})
	require.NoError(t, err)

	token, err := api.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)

	claims, err := api.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, []string{"qualitree-api"}, []string(claims.Audience))

	_, err = other.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}

func TestGeneratedTokensCarryDistinctIDs(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	first, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)
	second, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)

	a, err := svc.ValidateAccessToken(first)
	require.NoError(t, err)
	b, err := svc.ValidateAccessToken(second)
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}

func TestValidateAccessTokenToleratesClockSkew(t *testing.T) {
	current := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{Secret: "s", AccessTokenTTL: time.Minute, Clock: func() time.Time { return current }})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)

	current = current.Add(time.Minute + 10*time.Second)
	_, err = svc.ValidateAccessToken(token)
	require.NoError(t, err)
}

func TestValidateAccessTokenEmpty(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken("")
	require.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "alice"})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}
