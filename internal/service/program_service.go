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

// ProgramService program use cases. Reads are public.
type ProgramService interface {
	Create(ctx context.Context, req *dto.CreateProgramRequest, p *policy.Principal) (*model.Program, error)
	GetByID(ctx context.Context, id string) (*model.Program, error)
	List(ctx context.Context, q *dto.ProgramListQuery) ([]model.Program, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateProgramRequest, p *policy.Principal) (*model.Program, error)
	Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error
}

type programService struct {
	repo   *repository.Repository
	rec    *Recorder
	logger *zap.Logger
}

func NewProgramService(repo *repository.Repository, rec *Recorder, logger *zap.Logger) ProgramService {
	return &programService{repo: repo, rec: rec, logger: logger}
}

func (s *programService) Create(ctx context.Context, req *dto.CreateProgramRequest, p *policy.Principal) (*model.Program, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceProgram, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}

	prog := &model.Program{InstitutionID: req.InstitutionID, Name: req.Name, Description: req.Description}
	if err := invariant.Program(prog); err != nil {
		return nil, err
	}
	if _, err := s.repo.Institution.GetByID(ctx, prog.InstitutionID); err != nil {
		return nil, notFound(err, "institution not found", "institution_id")
	}

	if err := s.repo.Program.Create(ctx, prog); err != nil {
		s.logger.Error("create program failed", zap.Error(err))
		return nil, err
	}
	return prog, nil
}

func (s *programService) GetByID(ctx context.Context, id string) (*model.Program, error) {
	prog, err := s.repo.Program.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "program not found", "id")
	}
	return prog, nil
}

func (s *programService) List(ctx context.Context, q *dto.ProgramListQuery) ([]model.Program, int64, error) {
	limit, offset := q.Window()
	return s.repo.Program.List(ctx,
		repository.ProgramFilter{InstitutionID: q.InstitutionID},
		repository.ListParams{Limit: limit, Offset: offset})
}

func (s *programService) Update(ctx context.Context, id string, req *dto.UpdateProgramRequest, p *policy.Principal) (*model.Program, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceProgram, Action: policy.ActionUpdate}); err != nil {
		return nil, err
	}

	prog, err := s.repo.Program.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "program not found", "id")
	}

	req.ToPatch().Apply(prog)
	if err := invariant.Program(prog); err != nil {
		return nil, err
	}
	if err := s.repo.Program.Update(ctx, prog); err != nil {
		return nil, notFound(err, "program not found", "id")
	}
	return prog, nil
}

func (s *programService) Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceProgram, Action: policy.ActionDelete}); err != nil {
		return err
	}

	prog, err := s.repo.Program.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "program not found", "id")
	}
	if prog.IsDeleted() {
		return nil
	}
	if err := s.repo.Program.SoftDelete(ctx, id, p.ID, reason); err != nil {
		s.logger.Error("delete program failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.rec.Deleted(ctx, "program", id, p.ID, reason)
	return nil
}
