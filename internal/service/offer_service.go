package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// OfferService offer use cases. Reads are public and report lazy expiry: a
// published offer past its deadline comes back as expired.
type OfferService interface {
	Create(ctx context.Context, req *dto.CreateOfferRequest, p *policy.Principal) (*model.Offer, error)
	GetByID(ctx context.Context, id string) (*model.Offer, error)
	List(ctx context.Context, q *dto.OfferListQuery) ([]model.Offer, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateOfferRequest, p *policy.Principal) (*model.Offer, error)
	Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error
}

type offerService struct {
	repo   *repository.Repository
	rec    *Recorder
	logger *zap.Logger
	now    func() time.Time
}

func NewOfferService(repo *repository.Repository, rec *Recorder, logger *zap.Logger) OfferService {
	return &offerService{repo: repo, rec: rec, logger: logger, now: systemClock}
}

// ────────────────────── Create ──────────────────────

func (s *offerService) Create(ctx context.Context, req *dto.CreateOfferRequest, p *policy.Principal) (*model.Offer, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceOffer, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}

	offer := &model.Offer{
		InstitutionID:       req.InstitutionID,
		ProgramID:           req.ProgramID,
		Title:               req.Title,
		Description:         req.Description,
		Type:                model.OfferType(req.Type),
		Status:              model.OfferStatus(req.Status),
		PublicationDate:     req.PublicationDate.UTC(),
		ApplicationDeadline: req.ApplicationDeadline.UTC(),
	}
	if offer.Status == "" {
		offer.Status = model.OfferStatusDraft
	}
	if err := invariant.Offer(offer, true); err != nil {
		return nil, err
	}
	if err := rejectDeletedStatus(offer.Status); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, offer.InstitutionID, offer.ProgramID); err != nil {
		return nil, err
	}

	if err := s.repo.Offer.Create(ctx, offer); err != nil {
		s.logger.Error("create offer failed", zap.Error(err))
		return nil, err
	}
	return s.present(offer), nil
}

// ────────────────────── Read ──────────────────────

func (s *offerService) GetByID(ctx context.Context, id string) (*model.Offer, error) {
	offer, err := s.repo.Offer.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "offer not found", "id")
	}
	return s.present(offer), nil
}

func (s *offerService) List(ctx context.Context, q *dto.OfferListQuery) ([]model.Offer, int64, error) {
	filter := repository.OfferFilter{
		InstitutionID: q.InstitutionID,
		ProgramID:     q.ProgramID,
		Type:          model.OfferType(q.Type),
		Status:        model.OfferStatus(q.Status),
		Now:           s.now(),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, apperrors.Validation("unknown offer type",
			apperrors.Detail{Field: "type", Reason: invariant.ReasonUnknownOfferType, Values: []string{q.Type}})
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.Validation("unknown offer status",
			apperrors.Detail{Field: "status", Reason: invariant.ReasonUnknownOfferStatus, Values: []string{q.Status}})
	}

	limit, offset := q.Window()
	offers, total, err := s.repo.Offer.List(ctx, filter, repository.ListParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	for i := range offers {
		s.present(&offers[i])
	}
	return offers, total, nil
}

// ────────────────────── Update ──────────────────────

// Update re-checks the date window only when a date changes, comparing the
// patched value against the persisted one.
func (s *offerService) Update(ctx context.Context, id string, req *dto.UpdateOfferRequest, p *policy.Principal) (*model.Offer, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceOffer, Action: policy.ActionUpdate}); err != nil {
		return nil, err
	}

	offer, err := s.repo.Offer.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "offer not found", "id")
	}

	patch := req.ToPatch()
	datesChanged := patch.ChangesDates(offer)
	programChanged := patch.ProgramID.Set && patch.ProgramID.Value != nil

	patch.Apply(offer)
	offer.PublicationDate = offer.PublicationDate.UTC()
	offer.ApplicationDeadline = offer.ApplicationDeadline.UTC()

	if err := invariant.Offer(offer, datesChanged); err != nil {
		return nil, err
	}
	if err := rejectDeletedStatus(offer.Status); err != nil {
		return nil, err
	}
	if programChanged {
		if err := s.checkReferences(ctx, "", offer.ProgramID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Offer.Update(ctx, offer); err != nil {
		return nil, notFound(err, "offer not found", "id")
	}
	return s.present(offer), nil
}

// ────────────────────── Delete ──────────────────────

func (s *offerService) Delete(ctx context.Context, id string, reason *string, p *policy.Principal) error {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceOffer, Action: policy.ActionDelete}); err != nil {
		return err
	}

	offer, err := s.repo.Offer.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "offer not found", "id")
	}
	if offer.IsDeleted() {
		return nil
	}
	if err := s.repo.Offer.SoftDelete(ctx, id, p.ID, reason); err != nil {
		s.logger.Error("delete offer failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.rec.Deleted(ctx, "offer", id, p.ID, reason)
	return nil
}

// ── helpers ──

// present replaces the stored status with the one observed now.
func (s *offerService) present(o *model.Offer) *model.Offer {
	o.Status = o.EffectiveStatus(s.now())
	return o
}

// checkReferences verifies the parent institution (when given) and the
// optional program exist. Program ownership is not cross-checked.
func (s *offerService) checkReferences(ctx context.Context, institutionID string, programID *string) error {
	if institutionID != "" {
		if _, err := s.repo.Institution.GetByID(ctx, institutionID); err != nil {
			return notFound(err, "institution not found", "institution_id")
		}
	}
	if programID != nil {
		if _, err := s.repo.Program.GetByID(ctx, *programID); err != nil {
			return notFound(err, "program not found", "program_id")
		}
	}
	return nil
}

// rejectDeletedStatus: "deleted" is only reachable through Delete.
func rejectDeletedStatus(status model.OfferStatus) error {
	if status == model.OfferStatusDeleted {
		return apperrors.Validation("status deleted is set by deleting the offer",
			apperrors.Detail{Field: "status", Reason: invariant.ReasonInvalid})
	}
	return nil
}
