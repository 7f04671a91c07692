package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/metrics"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testUserID = "11111111-1111-4111-8111-111111111111"

func newJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		Issuer:          "vlab-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

// protected echoes the principal the middleware injected.
func protected(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		v, ok := c.Get(PrincipalKey)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, v.(*policy.Principal).ID)
	})
	r.GET("/p", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth_InjectsPrincipal(t *testing.T) {
	mgr := newJWT()
	token, _ := mgr.GenerateAccessToken(testUserID, []string{"Candidate"}, "")

	w := do(protected(JWTAuth(mgr, nil)), token)

	if w.Code != http.StatusOK || w.Body.String() != testUserID {
		t.Errorf("expected principal %s, got %d %q", testUserID, w.Code, w.Body.String())
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newJWT()
	refresh, _ := mgr.GenerateRefreshToken(testUserID, []string{model.RoleCandidate}, "")

	cases := map[string]string{
		"missing":       "",
		"garbage":       "not-a-jwt",
		"refresh token": refresh,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(protected(JWTAuth(mgr, nil)), token)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	mgr := newJWT()
	token, _ := mgr.GenerateAccessToken(testUserID, []string{model.RoleCandidate}, "")
	claims, _ := mgr.ParseToken(token)

	store := &fakeRevocations{revoked: map[string]bool{claims.ID: true}}
	if w := do(protected(JWTAuth(mgr, store)), token); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a revoked token, got %d", w.Code)
	}

	// store outage fails open
	store = &fakeRevocations{err: errors.New("redis down")}
	if w := do(protected(JWTAuth(mgr, store)), token); w.Code != http.StatusOK {
		t.Errorf("expected 200 when the store errors, got %d", w.Code)
	}
}

// ── OptionalAuth ──

func TestOptionalAuth(t *testing.T) {
	mgr := newJWT()
	r := protected(OptionalAuth(mgr, nil))

	if w := do(r, ""); w.Code != http.StatusOK || w.Body.String() != "anonymous" {
		t.Errorf("anonymous request should pass, got %d %q", w.Code, w.Body.String())
	}
	if w := do(r, "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("a bad token must not downgrade to anonymous, got %d", w.Code)
	}
	token, _ := mgr.GenerateAccessToken(testUserID, []string{model.RoleSysAdmin}, "")
	if w := do(r, token); w.Body.String() != testUserID {
		t.Errorf("expected principal, got %q", w.Body.String())
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	mgr := newJWT()
	r := protected(JWTAuth(mgr, nil), RoleAuth(model.RoleSysAdmin, model.RoleInstitutionAdmin))

	candidate, _ := mgr.GenerateAccessToken(testUserID, []string{model.RoleCandidate}, "")
	if w := do(r, candidate); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for candidate, got %d", w.Code)
	}
	admin, _ := mgr.GenerateAccessToken(testUserID, []string{"INSTITUTION_ADMIN"}, "inst")
	if w := do(r, admin); w.Code != http.StatusOK {
		t.Errorf("expected 200 for institution admin, got %d", w.Code)
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(response.RequestIDKey)) })

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("inbound id not reused: %q", w.Body.String())
	}

	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", requestIDMaxLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Body.String()) != 36 {
		t.Errorf("oversized id should be replaced by a uuid, got %q", w.Body.String())
	}
}

// ── CORS ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.v-lab.test/"}))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/p", nil)
	req.Header.Set("Origin", "https://app.v-lab.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://app.v-lab.test" {
		t.Errorf("preflight not answered: %d %v", w.Code, w.Header())
	}

	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be reflected")
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/p", strings.NewReader(`{"a":"too long"}`)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/p", strings.NewReader(`{}`)))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit_DisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, zap.NewNop()))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/p", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

// ── Logger ──

func TestLogger_FieldsAndSkipPaths(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core), "/health"))
	r.Use(func(c *gin.Context) {
		c.Set(PrincipalKey, policy.NewPrincipal(testUserID, []string{model.RoleCandidate}, ""))
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/offers/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	if logs.Len() != 0 {
		t.Fatalf("expected skipped path to stay silent, got %d entries", logs.Len())
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/offers/abc?x=1", nil))
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("expected warn for 404, got %s", e.Level)
	}
	fields := e.ContextMap()
	if fields["route"] != "/offers/:id" {
		t.Errorf("expected route template, got %v", fields["route"])
	}
	if fields["user_id"] != testUserID {
		t.Errorf("expected user_id %s, got %v", testUserID, fields["user_id"])
	}
	if fields["query"] != "x=1" {
		t.Errorf("expected query x=1, got %v", fields["query"])
	}
	if id, _ := fields["request_id"].(string); id == "" {
		t.Error("expected request_id")
	}
}

// ── Metrics ──

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/offers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/offers/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/offers/:id", "200")); got != 2 {
		t.Errorf("expected 2 requests on the template, got %v", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}
