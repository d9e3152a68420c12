package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL is used when neither the service nor the request sets a TTL.
	DefaultAccessTokenTTL = 12 * time.Hour

	// ScopeWrite grants access to mutating tree endpoints.
	ScopeWrite = "functionalities:write"

	clockSkewLeeway = 30 * time.Second
)

var (
	errMissingSecret  = errors.New("jwt: secret must be provided")
	errMissingSubject = errors.New("jwt: subject is required")
)

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret         string
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims are the registered claims plus the granted scopes.
type Claims struct {
	Scopes []string `json:"scp,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants scope.
func (c *Claims) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

// AccessTokenInput describes a token to issue. Zero TTL uses the service default.
type AccessTokenInput struct {
	Subject string
	Scopes  []string
	TTL     time.Duration
}

// JWTService issues and validates HS256 access tokens.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// NewJWTService validates cfg and builds the service.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errMissingSecret
	}

	svc := &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		ttl:      cfg.AccessTokenTTL,
		now:      cfg.Clock,
	}
	if svc.ttl <= 0 {
		svc.ttl = DefaultAccessTokenTTL
	}
	if svc.now == nil {
		svc.now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(svc.now),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if svc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(svc.issuer))
	}
	if svc.audience != "" {
		opts = append(opts, jwt.WithAudience(svc.audience))
	}
	svc.parser = jwt.NewParser(opts...)

	return svc, nil
}

// GenerateAccessToken signs a token for input.Subject carrying a fresh token id.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return "", errMissingSubject
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = s.ttl
	}
	issuedAt := s.now()

	claims := Claims{
		Scopes: slices.Clone(input.Scopes),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature, time window, issuer and audience and
// returns the claims. Failures wrap the jwt package sentinels.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("jwt: %w", jwt.ErrTokenMalformed)
	}

	var claims Claims
	if _, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errMissingSubject
	}
	return &claims, nil
}
