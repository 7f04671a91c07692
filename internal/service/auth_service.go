package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/password"
)

// TokenStore is the revocation list. *redis.Client satisfies it.
type TokenStore interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

var errInvalidCredentials = apperrors.Unauthorized("invalid email or password")

// AuthService issues and revokes tokens.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout revokes the access token described by claims and, when given, the
	// refresh token.
	Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, p *policy.Principal) (*model.User, *model.CandidateProfile, error)
}

type authService struct {
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	hasher password.Hasher
	tokens TokenStore
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	hasher password.Hasher,
	tokens TokenStore,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		jwtMgr: jwtMgr,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    systemClock,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. user by email
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	// 2. password
	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return nil, errInvalidCredentials
	}

	// 3. token pair
	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	profile, err := activeProfile(ctx, s.repo, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{TokenResponse: *tokens, User: dto.NewUserResponse(user, profile)}, nil
}

// ────────────────────── Refresh ──────────────────────

// Refresh rotates the pair. Roles and institution are re-read so the new access
// token reflects the current assignment; the presented refresh token is revoked.
func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.Unauthorized("refresh token revoked")
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.Unauthorized("user no longer exists")
		}
		return nil, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return tokens, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	if claims == nil {
		return apperrors.Unauthorized("authentication required")
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}

	refresh, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || refresh.TokenType != jwt.TokenTypeRefresh || refresh.UserID() != claims.UserID() {
		// the access token is already revoked; an unusable refresh token is ignored
		return nil
	}
	return s.revoke(ctx, refresh)
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, p *policy.Principal) (*model.User, *model.CandidateProfile, error) {
	if err := requireAuth(p); err != nil {
		return nil, nil, err
	}
	user, err := s.repo.User.GetByID(ctx, p.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperrors.Unauthorized("user no longer exists")
		}
		return nil, nil, err
	}
	profile, err := activeProfile(ctx, s.repo, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// ── helpers ──

func (s *authService) issue(user *model.User) (*dto.TokenResponse, error) {
	institutionID := ""
	if user.InstitutionID != nil {
		institutionID = *user.InstitutionID
	}

	access, err := s.jwtMgr.GenerateAccessToken(user.ID, user.RoleNames(), institutionID)
	if err != nil {
		s.logger.Error("generate access token failed", zap.Error(err))
		return nil, err
	}
	refresh, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.RoleNames(), institutionID)
	if err != nil {
		s.logger.Error("generate refresh token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

// revoke blacklists the token until it would have expired anyway.
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) error {
	if s.tokens == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.tokens.RevokeToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("revoke token failed", zap.String("jti", claims.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.tokens == nil || jti == "" {
		return false, nil
	}
	revoked, err := s.tokens.IsRevoked(ctx, jti)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("check token revocation failed", zap.String("jti", jti), zap.Error(err))
	}
	return revoked, err
}
