package service

import (
	"context"
	"testing"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
)

// ── Login ──

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	user, profile := registerCandidate(t, env, "login@example.com", "Login")

	resp, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Email: " LOGIN@example.com ", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 900 {
		t.Errorf("unexpected token metadata: %s %d", resp.TokenType, resp.ExpiresIn)
	}
	if resp.User.ID != user.ID || resp.User.CandidateProfile == nil || resp.User.CandidateProfile.ID != profile.ID {
		t.Errorf("expected user with profile, got %+v", resp.User)
	}

	claims, err := env.jwt.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID() != user.ID || claims.TokenType != jwt.TokenTypeAccess {
		t.Errorf("unexpected claims %+v", claims)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != model.RoleCandidate {
		t.Errorf("expected candidate role claim, got %v", claims.Roles)
	}
}

func TestAuthService_Login_InstitutionClaim(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	registerInstitutionAdmin(t, env, "claims@acme.edu", cat.institution.ID)

	resp, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Email: "claims@acme.edu", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, _ := env.jwt.ParseToken(resp.AccessToken)
	if claims.InstitutionID != cat.institution.ID {
		t.Errorf("expected institution claim %s, got %q", cat.institution.ID, claims.InstitutionID)
	}
}

// Unknown email and wrong password are indistinguishable.
func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	registerCandidate(t, env, "known@example.com", "Known")
	ctx := context.Background()

	_, errUnknown := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: testPassword})
	_, errWrong := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "known@example.com", Password: "Wr0ng!Pass"})

	expectAppError(t, errUnknown, apperrors.KindUnauthorized, "", "")
	expectAppError(t, errWrong, apperrors.KindUnauthorized, "", "")
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("messages must match: %q vs %q", errUnknown, errWrong)
	}
}

func TestAuthService_Login_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	user, _ := registerCandidate(t, env, "deleted@example.com", "Deleted")
	if err := env.svc.User.Delete(context.Background(), user.ID, nil, sysAdmin); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := env.svc.Auth.Login(context.Background(), &dto.LoginRequest{Email: "deleted@example.com", Password: testPassword})
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}

// ── Refresh ──

func TestAuthService_Refresh_RotatesAndRevokes(t *testing.T) {
	env := newTestEnv(t)
	registerCandidate(t, env, "rotate@example.com", "Rotate")
	ctx := context.Background()

	login, err := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "rotate@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	pair, err := env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == login.RefreshToken {
		t.Error("expected a new token pair")
	}

	// the old refresh token is spent
	_, err = env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	registerCandidate(t, env, "wrongtype@example.com", "Wrong")
	ctx := context.Background()
	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "wrongtype@example.com", Password: testPassword})

	_, err := env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")

	_, err = env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: "garbage"})
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}

func TestAuthService_Refresh_PicksUpRoleChanges(t *testing.T) {
	env := newTestEnv(t)
	user, _, err := env.svc.User.Create(context.Background(), &dto.CreateUserRequest{
		Email: "promote@example.com", Password: testPassword, Roles: []string{model.RoleCandidate},
	}, sysAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ctx := context.Background()
	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "promote@example.com", Password: testPassword})

	if _, _, err := env.svc.User.Update(ctx, user.ID, &dto.UpdateUserRequest{Roles: []string{model.RoleSysAdmin}}, sysAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}

	pair, err := env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, _ := env.jwt.ParseToken(pair.AccessToken)
	if len(claims.Roles) != 1 || claims.Roles[0] != model.RoleSysAdmin {
		t.Errorf("expected refreshed roles [sys_admin], got %v", claims.Roles)
	}
}

// ── Logout ──

func TestAuthService_Logout_RevokesBothTokens(t *testing.T) {
	env := newTestEnv(t)
	registerCandidate(t, env, "bye@example.com", "Bye")
	ctx := context.Background()
	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "bye@example.com", Password: testPassword})

	access, _ := env.jwt.ParseToken(login.AccessToken)
	refresh, _ := env.jwt.ParseToken(login.RefreshToken)

	if err := env.svc.Auth.Logout(ctx, access, login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	for _, jti := range []string{access.ID, refresh.ID} {
		if revoked, _ := env.tokens.IsRevoked(ctx, jti); !revoked {
			t.Errorf("expected %s revoked", jti)
		}
	}
	if ttl := env.tokens.revoked[access.ID]; ttl <= 0 {
		t.Errorf("expected a positive revocation ttl, got %v", ttl)
	}

	_, err := env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}

// Another user's refresh token is ignored rather than revoked.
func TestAuthService_Logout_IgnoresForeignRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	registerCandidate(t, env, "me@example.com", "Me")
	registerCandidate(t, env, "you@example.com", "You")
	ctx := context.Background()
	mine, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "me@example.com", Password: testPassword})
	yours, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "you@example.com", Password: testPassword})

	access, _ := env.jwt.ParseToken(mine.AccessToken)
	if err := env.svc.Auth.Logout(ctx, access, yours.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := env.svc.Auth.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: yours.RefreshToken}); err != nil {
		t.Errorf("foreign refresh token must stay valid: %v", err)
	}
}

func TestAuthService_Logout_WithoutTokenStore(t *testing.T) {
	env := newTestEnv(t)
	registerCandidate(t, env, "noredis@example.com", "NoRedis")
	ctx := context.Background()
	env.svc.Auth.(*authService).tokens = nil

	login, _ := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "noredis@example.com", Password: testPassword})
	access, _ := env.jwt.ParseToken(login.AccessToken)
	if err := env.svc.Auth.Logout(ctx, access, login.RefreshToken); err != nil {
		t.Fatalf("Logout without store: %v", err)
	}

	err := env.svc.Auth.Logout(ctx, nil, "")
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}

// ── Me ──

func TestAuthService_Me(t *testing.T) {
	env := newTestEnv(t)
	user, profile := registerCandidate(t, env, "whoami@example.com", "Who")
	ctx := context.Background()

	got, cp, err := env.svc.Auth.Me(ctx, principalOf(user))
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if got.ID != user.ID || cp == nil || cp.ID != profile.ID {
		t.Errorf("unexpected Me result %+v / %+v", got, cp)
	}

	_, _, err = env.svc.Auth.Me(ctx, anonymous)
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}
