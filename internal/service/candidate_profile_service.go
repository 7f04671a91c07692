package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// CandidateProfileService manages the single applicant profile of a user.
type CandidateProfileService interface {
	Create(ctx context.Context, req *dto.CreateCandidateProfileRequest, p *policy.Principal) (*model.CandidateProfile, error)
	GetByID(ctx context.Context, id string, p *policy.Principal) (*model.CandidateProfile, error)
	GetByUserID(ctx context.Context, userID string, p *policy.Principal) (*model.CandidateProfile, error)
	List(ctx context.Context, q *dto.ListQuery, p *policy.Principal) ([]model.CandidateProfile, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCandidateProfileRequest, p *policy.Principal) (*model.CandidateProfile, error)
	Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error
}

type candidateProfileService struct {
	repo   *repository.Repository
	rec    *Recorder
	logger *zap.Logger
}

func NewCandidateProfileService(repo *repository.Repository, rec *Recorder, logger *zap.Logger) CandidateProfileService {
	return &candidateProfileService{repo: repo, rec: rec, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *candidateProfileService) Create(ctx context.Context, req *dto.CreateCandidateProfileRequest, p *policy.Principal) (*model.CandidateProfile, error) {
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceCandidateProfile, Action: policy.ActionCreate, OwnerID: req.UserID,
	}); err != nil {
		return nil, err
	}
	return createCandidateProfile(ctx, s.repo, req.ToModel(req.UserID))
}

// createCandidateProfile enforces one profile per user, counting deleted ones,
// and that the user exists and is a candidate. repo may be bound to a transaction.
func createCandidateProfile(ctx context.Context, repo *repository.Repository, cp *model.CandidateProfile) (*model.CandidateProfile, error) {
	if err := invariant.CandidateProfile(cp); err != nil {
		return nil, err
	}
	owner, err := repo.User.GetByID(ctx, cp.UserID)
	if err != nil {
		return nil, notFound(err, "user not found", "user_id")
	}
	if err := invariant.CandidateProfilePayload(owner.RoleNames(), true, false); err != nil {
		return nil, err
	}

	_, err = repo.CandidateProfile.GetByUserID(ctx, cp.UserID)
	if err == nil {
		return nil, apperrors.Conflict("user already has a candidate profile",
			apperrors.Detail{Field: "user_id", Reason: "already_exists"})
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	if err := repo.CandidateProfile.Create(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// ────────────────────── Read ──────────────────────

func (s *candidateProfileService) GetByID(ctx context.Context, id string, p *policy.Principal) (*model.CandidateProfile, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	cp, err := s.repo.CandidateProfile.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "candidate profile not found", "id")
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceCandidateProfile, Action: policy.ActionRead, OwnerID: cp.UserID,
	}); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *candidateProfileService) GetByUserID(ctx context.Context, userID string, p *policy.Principal) (*model.CandidateProfile, error) {
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceCandidateProfile, Action: policy.ActionRead, OwnerID: userID,
	}); err != nil {
		return nil, err
	}
	cp, err := s.repo.CandidateProfile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "candidate profile not found", "user_id")
	}
	if cp.IsDeleted() {
		return nil, apperrors.NotFound("candidate profile not found",
			apperrors.Detail{Field: "user_id", Reason: reasonNotFound})
	}
	return cp, nil
}

func (s *candidateProfileService) List(ctx context.Context, q *dto.ListQuery, p *policy.Principal) ([]model.CandidateProfile, int64, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceCandidateProfile, Action: policy.ActionList}); err != nil {
		return nil, 0, err
	}
	limit, offset := q.Window()
	return s.repo.CandidateProfile.List(ctx, repository.ListParams{Limit: limit, Offset: offset})
}

// ────────────────────── Update ──────────────────────

func (s *candidateProfileService) Update(ctx context.Context, id string, req *dto.UpdateCandidateProfileRequest, p *policy.Principal) (*model.CandidateProfile, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	cp, err := s.repo.CandidateProfile.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "candidate profile not found", "id")
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceCandidateProfile, Action: policy.ActionUpdate, OwnerID: cp.UserID,
	}); err != nil {
		return nil, err
	}

	if err := updateCandidateProfile(ctx, s.repo, cp, req.ToPatch()); err != nil {
		return nil, err
	}
	return cp, nil
}

func updateCandidateProfile(ctx context.Context, repo *repository.Repository, cp *model.CandidateProfile, patch model.CandidateProfilePatch) error {
	if patch.IsEmpty() {
		return nil
	}
	patch.Apply(cp)
	if err := invariant.CandidateProfile(cp); err != nil {
		return err
	}
	if err := repo.CandidateProfile.Update(ctx, cp); err != nil {
		return notFound(err, "candidate profile not found", "id")
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *candidateProfileService) Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	cp, err := s.repo.CandidateProfile.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "candidate profile not found", "id")
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceCandidateProfile, Action: policy.ActionDelete, OwnerID: cp.UserID,
	}); err != nil {
		return err
	}
	if cp.IsDeleted() {
		return nil
	}

	if err := s.repo.CandidateProfile.SoftDelete(ctx, id, p.ID, reason); err != nil {
		s.logger.Error("delete candidate profile failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.rec.Deleted(ctx, "candidate_profile", id, p.ID, reason)
	return nil
}
