package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

// Context keys written by the auth middleware.
const (
	PrincipalKey = "principal"
	ClaimsKey    = "claims"
)

// RevocationChecker reports whether a token id was revoked at logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the Bearer access token and injects the principal.
// revoked may be nil, in which case revocation is not checked.
func JWTAuth(jwtMgr *jwt.Manager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}
		if !authenticate(c, jwtMgr, revoked, token) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth injects the principal when a valid token is present and lets
// anonymous requests through. A present but invalid token is still rejected.
func OptionalAuth(jwtMgr *jwt.Manager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}
		if !authenticate(c, jwtMgr, revoked, token) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// RoleAuth rejects principals holding none of roles. Services authorize again
// with the full policy; this only short-circuits obvious denials.
func RoleAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := c.Get(PrincipalKey)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if !p.(*policy.Principal).HasAny(roles...) {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate writes the 401 itself and reports whether the request may go on.
func authenticate(c *gin.Context, jwtMgr *jwt.Manager, revoked RevocationChecker, token string) bool {
	claims, err := jwtMgr.ParseToken(token)
	if err != nil || claims.TokenType != jwt.TokenTypeAccess {
		response.Unauthorized(c, "invalid or expired token")
		return false
	}

	if revoked != nil {
		isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// fail open: the token signature and expiry already checked out
			_ = c.Error(err)
		} else if isRevoked {
			response.Unauthorized(c, "token has been revoked")
			return false
		}
	}

	c.Set(ClaimsKey, claims)
	c.Set(PrincipalKey, policy.NewPrincipal(claims.UserID(), claims.Roles, claims.InstitutionID))
	return true
}
