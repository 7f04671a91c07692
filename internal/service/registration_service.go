package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/password"
)

// RegistrationService is the sign-up saga: validate role names, create the
// user, then create the candidate profile when the candidate role is
// requested. Both writes share one transaction.
type RegistrationService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, p *policy.Principal) (*model.User, *model.CandidateProfile, error)
}

type registrationService struct {
	creator *userCreator
	rec     *Recorder
	logger  *zap.Logger
}

func NewRegistrationService(repo *repository.Repository, hasher password.Hasher, rec *Recorder, logger *zap.Logger) RegistrationService {
	return &registrationService{
		creator: &userCreator{repo: repo, hasher: hasher},
		rec:     rec,
		logger:  logger,
	}
}

// Register is open to anonymous callers except for the sys_admin role, which
// only an existing sys_admin may grant.
func (s *registrationService) Register(ctx context.Context, req *dto.RegisterRequest, p *policy.Principal) (*model.User, *model.CandidateProfile, error) {
	// 1. role names
	roles, err := s.creator.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, nil, err
	}

	// 2. privileged roles
	for _, r := range roles {
		if model.NormalizeRoleName(r.Name) == model.RoleSysAdmin {
			if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceUser, Action: policy.ActionCreate}); err != nil {
				return nil, nil, err
			}
			break
		}
	}

	// 3. user + conditional profile
	user, profile, err := s.creator.create(ctx, newUser{request: req, roles: roles, requireProfile: true})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.Strings("roles", user.RoleNames()))
	s.rec.Registered(ctx, user, actorID(p))
	return user, profile, nil
}
