package jwt

import (
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the requester identity. Roles are lowercase role names.
type Claims struct {
	Roles         []string `json:"roles"`
	InstitutionID string   `json:"institution_id,omitempty"`
	TokenType     string   `json:"token_type"`
	jwtv5.RegisteredClaims
}

// UserID is the token subject.
func (c *Claims) UserID() string { return c.Subject }

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// NewManager creates a Manager from the auth config.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		issuer:          cfg.Issuer,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		now:             time.Now,
	}
}

// AccessTokenTTL exposes the configured lifetime for token responses.
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// GenerateAccessToken issues a short-lived token carrying the role claim.
func (m *Manager) GenerateAccessToken(userID string, roles []string, institutionID string) (string, error) {
	return m.sign(userID, roles, institutionID, TokenTypeAccess, m.accessTokenTTL)
}

// GenerateRefreshToken issues a long-lived token used only by /auth/refresh.
func (m *Manager) GenerateRefreshToken(userID string, roles []string, institutionID string) (string, error) {
	return m.sign(userID, roles, institutionID, TokenTypeRefresh, m.refreshTokenTTL)
}

func (m *Manager) sign(userID string, roles []string, institutionID, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	normalized := make([]string, 0, len(roles))
	for _, r := range roles {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(r)))
	}
	claims := Claims{
		Roles:         normalized,
		InstitutionID: institutionID,
		TokenType:     tokenType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    m.issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies signature, issuer and expiry.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwtv5.ParserOption{jwtv5.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(m.issuer))
	}
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
