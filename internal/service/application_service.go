package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// ApplicationService handles submission and review of applications.
type ApplicationService interface {
	Create(ctx context.Context, req *dto.CreateApplicationRequest, p *policy.Principal) (*model.Application, error)
	GetByID(ctx context.Context, id string, p *policy.Principal) (*model.Application, error)
	ListByCandidateProfile(ctx context.Context, candidateProfileID string, q *dto.ApplicationListQuery, p *policy.Principal) ([]model.Application, int64, error)
	ListByOffer(ctx context.Context, offerID string, q *dto.ApplicationListQuery, p *policy.Principal) ([]model.Application, int64, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateApplicationStatusRequest, p *policy.Principal) (*model.Application, error)
	Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error
}

type applicationService struct {
	repo   *repository.Repository
	rec    *Recorder
	logger *zap.Logger
	now    func() time.Time
}

func NewApplicationService(repo *repository.Repository, rec *Recorder, logger *zap.Logger) ApplicationService {
	return &applicationService{repo: repo, rec: rec, logger: logger, now: systemClock}
}

// ────────────────────── Create ──────────────────────

// Create checks, in order: the offer exists, its deadline has not passed, the
// profile exists, the requester may act for it, and no active application
// exists for the pair.
func (s *applicationService) Create(ctx context.Context, req *dto.CreateApplicationRequest, p *policy.Principal) (*model.Application, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}

	app, err := s.create(ctx, req, p)
	if err != nil {
		s.rec.Rejected(err)
		return nil, err
	}
	s.rec.Submitted(ctx, app, p.ID)
	return app, nil
}

func (s *applicationService) create(ctx context.Context, req *dto.CreateApplicationRequest, p *policy.Principal) (*model.Application, error) {
	offer, profile, err := s.loadPair(ctx, req.OfferID, req.CandidateProfileID)
	if err != nil {
		return nil, err
	}

	if offer == nil {
		return nil, apperrors.NotFound("offer not found",
			apperrors.Detail{Field: "offer_id", Reason: reasonNotFound})
	}
	if err := invariant.OfferOpen(offer, s.now()); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.NotFound("candidate profile not found",
			apperrors.Detail{Field: "candidate_profile_id", Reason: reasonNotFound})
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceApplication, Action: policy.ActionCreate, OwnerID: profile.UserID,
	}); err != nil {
		return nil, err
	}

	_, err = s.repo.Application.GetByCandidateAndOffer(ctx, profile.ID, offer.ID)
	if err == nil {
		return nil, apperrors.Conflict("candidate already applied to this offer",
			apperrors.Detail{Field: "offer_id", Reason: "already_exists"})
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	app := &model.Application{
		CandidateProfileID: profile.ID,
		OfferID:            offer.ID,
		Status:             model.DefaultApplicationStatus,
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// loadPair fetches the offer and the profile concurrently. A missing row comes
// back as nil; any other failure cancels the sibling lookup.
func (s *applicationService) loadPair(ctx context.Context, offerID, profileID string) (*model.Offer, *model.CandidateProfile, error) {
	var (
		offer   *model.Offer
		profile *model.CandidateProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.repo.Offer.GetByID(gctx, offerID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		offer = o
		return nil
	})
	g.Go(func() error {
		cp, err := s.repo.CandidateProfile.GetByID(gctx, profileID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		profile = cp
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load application references failed", zap.Error(err))
		return nil, nil, err
	}
	return offer, profile, nil
}

// ────────────────────── Read ──────────────────────

func (s *applicationService) GetByID(ctx context.Context, id string, p *policy.Principal) (*model.Application, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "application not found", "id")
	}
	owner, err := s.ownerOf(ctx, app)
	if err != nil {
		return nil, err
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceApplication, Action: policy.ActionRead, OwnerID: owner,
	}); err != nil {
		return nil, err
	}
	return app, nil
}

// ListByCandidateProfile is open to the candidate who owns the profile and to
// sys_admin.
func (s *applicationService) ListByCandidateProfile(ctx context.Context, candidateProfileID string, q *dto.ApplicationListQuery, p *policy.Principal) ([]model.Application, int64, error) {
	if err := requireAuth(p); err != nil {
		return nil, 0, err
	}
	profile, err := s.repo.CandidateProfile.GetByID(ctx, candidateProfileID)
	if err != nil {
		return nil, 0, notFound(err, "candidate profile not found", "candidate_profile_id")
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceApplication, Action: policy.ActionListOwn, OwnerID: profile.UserID,
	}); err != nil {
		return nil, 0, err
	}

	limit, offset := q.Window()
	return s.repo.Application.List(ctx,
		repository.ApplicationFilter{CandidateProfileID: profile.ID, Status: q.Status},
		repository.ListParams{Limit: limit, Offset: offset})
}

func (s *applicationService) ListByOffer(ctx context.Context, offerID string, q *dto.ApplicationListQuery, p *policy.Principal) ([]model.Application, int64, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceOffer, Action: policy.ActionListApplications}); err != nil {
		return nil, 0, err
	}
	if _, err := s.repo.Offer.GetByID(ctx, offerID); err != nil {
		return nil, 0, notFound(err, "offer not found", "offer_id")
	}

	limit, offset := q.Window()
	return s.repo.Application.List(ctx,
		repository.ApplicationFilter{OfferID: offerID, Status: q.Status},
		repository.ListParams{Limit: limit, Offset: offset})
}

// ────────────────────── Update ──────────────────────

func (s *applicationService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateApplicationStatusRequest, p *policy.Principal) (*model.Application, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceApplication, Action: policy.ActionUpdateStatus}); err != nil {
		return nil, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		return nil, apperrors.Validation("status is required",
			apperrors.Detail{Field: "status", Reason: invariant.ReasonRequired})
	}

	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "application not found", "id")
	}
	app.Status = status
	if err := s.repo.Application.Update(ctx, app); err != nil {
		return nil, notFound(err, "application not found", "id")
	}
	return app, nil
}

// ────────────────────── Delete ──────────────────────

// Delete withdraws an application. The pair may be submitted again afterwards.
func (s *applicationService) Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	app, err := s.repo.Application.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "application not found", "id")
	}
	owner, err := s.ownerOf(ctx, app)
	if err != nil {
		return err
	}
	if err := s.rec.authorize(policy.Request{
		Principal: p, Resource: policy.ResourceApplication, Action: policy.ActionDelete, OwnerID: owner,
	}); err != nil {
		return err
	}
	if app.IsDeleted() {
		return nil
	}

	if err := s.repo.Application.SoftDelete(ctx, id, p.ID, reason); err != nil {
		s.logger.Error("delete application failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.rec.Deleted(ctx, "application", id, p.ID, reason)
	return nil
}

// ownerOf resolves the user behind an application's profile, deleted or not.
func (s *applicationService) ownerOf(ctx context.Context, app *model.Application) (string, error) {
	cp, err := s.repo.CandidateProfile.GetByIDUnscoped(ctx, app.CandidateProfileID)
	if repository.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cp.UserID, nil
}
