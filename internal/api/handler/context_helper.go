package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/api/middleware"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

// principalFrom returns the requester injected by the auth middleware, or nil
// for anonymous requests. Services turn nil into an Unauthorized error.
func principalFrom(c *gin.Context) *policy.Principal {
	v, ok := c.Get(middleware.PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*policy.Principal)
	return p
}

// MustGetPrincipal writes a 401 when the request is anonymous. Callers return
// when ok is false.
func MustGetPrincipal(c *gin.Context) (*policy.Principal, bool) {
	p := principalFrom(c)
	if p == nil || p.ID == "" {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	return p, true
}

func claimsFrom(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
