package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
)

// InstitutionService institution use cases. Reads are public.
type InstitutionService interface {
	Create(ctx context.Context, req *dto.CreateInstitutionRequest, p *policy.Principal) (*model.Institution, error)
	GetByID(ctx context.Context, id string) (*model.Institution, error)
	List(ctx context.Context, q *dto.InstitutionListQuery) ([]model.Institution, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateInstitutionRequest, p *policy.Principal) (*model.Institution, error)
	Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error
}

type institutionService struct {
	repo   *repository.Repository
	rec    *Recorder
	logger *zap.Logger
}

// NewInstitutionService creates the InstitutionService.
func NewInstitutionService(repo *repository.Repository, rec *Recorder, logger *zap.Logger) InstitutionService {
	return &institutionService{repo: repo, rec: rec, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *institutionService) Create(ctx context.Context, req *dto.CreateInstitutionRequest, p *policy.Principal) (*model.Institution, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceInstitution, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}

	inst := &model.Institution{Name: req.Name, Description: req.Description}
	if err := invariant.Institution(inst); err != nil {
		return nil, err
	}
	if err := s.repo.Institution.Create(ctx, inst); err != nil {
		s.logger.Error("create institution failed", zap.Error(err))
		return nil, err
	}
	return inst, nil
}

// ────────────────────── Read ──────────────────────

func (s *institutionService) GetByID(ctx context.Context, id string) (*model.Institution, error) {
	inst, err := s.repo.Institution.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "institution not found", "id")
	}
	return inst, nil
}

func (s *institutionService) List(ctx context.Context, q *dto.InstitutionListQuery) ([]model.Institution, int64, error) {
	limit, offset := q.Window()
	return s.repo.Institution.List(ctx,
		repository.InstitutionFilter{Name: q.Name},
		repository.ListParams{Limit: limit, Offset: offset})
}

// ────────────────────── Update ──────────────────────

func (s *institutionService) Update(ctx context.Context, id string, req *dto.UpdateInstitutionRequest, p *policy.Principal) (*model.Institution, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceInstitution, Action: policy.ActionUpdate}); err != nil {
		return nil, err
	}

	inst, err := s.repo.Institution.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "institution not found", "id")
	}

	req.ToPatch().Apply(inst)
	if err := invariant.Institution(inst); err != nil {
		return nil, err
	}
	if err := s.repo.Institution.Update(ctx, inst); err != nil {
		return nil, notFound(err, "institution not found", "id")
	}
	return inst, nil
}

// ────────────────────── Delete ──────────────────────

// Delete soft-deletes the institution. Programs and offers under it are left
// untouched.
func (s *institutionService) Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceInstitution, Action: policy.ActionDelete}); err != nil {
		return err
	}

	inst, err := s.repo.Institution.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "institution not found", "id")
	}
	if inst.IsDeleted() {
		return nil
	}
	if err := s.repo.Institution.SoftDelete(ctx, id, p.ID, reason); err != nil {
		s.logger.Error("delete institution failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.rec.Deleted(ctx, "institution", id, p.ID, reason)
	return nil
}
