package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// RoleService role catalogue.
type RoleService interface {
	List(ctx context.Context) ([]model.Role, error)
	Create(ctx context.Context, req *dto.CreateRoleRequest, p *policy.Principal) (*model.Role, error)
}

type roleService struct {
	repo   *repository.Repository
	rec    *Recorder
	logger *zap.Logger
}

func NewRoleService(repo *repository.Repository, rec *Recorder, logger *zap.Logger) RoleService {
	return &roleService{repo: repo, rec: rec, logger: logger}
}

func (s *roleService) List(ctx context.Context) ([]model.Role, error) {
	return s.repo.Role.List(ctx)
}

func (s *roleService) Create(ctx context.Context, req *dto.CreateRoleRequest, p *policy.Principal) (*model.Role, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceRole, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required",
			apperrors.Detail{Field: "name", Reason: invariant.ReasonRequired})
	}

	_, err := s.repo.Role.GetByName(ctx, name)
	if err == nil {
		return nil, apperrors.Conflict("role already exists",
			apperrors.Detail{Field: "name", Reason: "already_exists"})
	}
	if !repository.IsNotFound(err) {
		s.logger.Error("lookup role failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	role := &model.Role{Name: name, Description: req.Description}
	if err := s.repo.Role.Create(ctx, role); err != nil {
		s.logger.Error("create role failed", zap.Error(err))
		return nil, err
	}
	return role, nil
}
