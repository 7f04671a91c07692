package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/audit"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/metrics"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

func systemClock() time.Time { return time.Now().UTC() }

// Recorder emits audit events and business metrics once a write has
// committed. A nil Recorder records nothing.
type Recorder struct {
	publisher audit.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewRecorder(publisher audit.Publisher, m *metrics.Metrics, logger *zap.Logger) *Recorder {
	if publisher == nil {
		publisher = audit.Nop{}
	}
	return &Recorder{publisher: publisher, metrics: m, logger: logger, now: systemClock}
}

func (r *Recorder) publish(ctx context.Context, e audit.Event) {
	if r == nil {
		return
	}
	e.OccurredAt = r.now()
	// detached so a cancelled request does not drop an event for a committed write
	if err := r.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		r.metrics.IncAuditFailure()
		r.logger.Warn("publish audit event failed",
			zap.String("type", e.Type), zap.String("entity_id", e.EntityID), zap.Error(err))
	}
}

// Deleted records a soft delete.
func (r *Recorder) Deleted(ctx context.Context, entity, id, actorID string, reason *string) {
	if r == nil {
		return
	}
	r.metrics.IncSoftDelete(entity)
	var attrs map[string]string
	if reason != nil {
		attrs = map[string]string{"reason": *reason}
	}
	r.publish(ctx, audit.Event{
		Type: audit.DeletedEvent(entity), Entity: entity, EntityID: id, ActorID: actorID, Attributes: attrs,
	})
}

// Registered records a completed registration saga.
func (r *Recorder) Registered(ctx context.Context, u *model.User, actorID string) {
	if r == nil {
		return
	}
	for _, role := range u.RoleNames() {
		r.metrics.IncRegistration(role)
	}
	r.publish(ctx, audit.Event{
		Type: audit.EventUserRegistered, Entity: "user", EntityID: u.ID, ActorID: actorID,
		Attributes: map[string]string{"email": u.Email},
	})
}

// Submitted records an accepted application.
func (r *Recorder) Submitted(ctx context.Context, a *model.Application, actorID string) {
	if r == nil {
		return
	}
	r.metrics.IncApplication("accepted")
	r.publish(ctx, audit.Event{
		Type: audit.EventApplicationSubmitted, Entity: "application", EntityID: a.ID, ActorID: actorID,
		Attributes: map[string]string{"offer_id": a.OfferID, "candidate_profile_id": a.CandidateProfileID},
	})
}

// Rejected counts a refused application by error kind.
func (r *Recorder) Rejected(err error) {
	if r == nil {
		return
	}
	r.metrics.IncApplication(apperrors.KindOf(err).String())
}

// authorize runs the policy and counts denials.
func (r *Recorder) authorize(req policy.Request) error {
	err := policy.Authorize(req)
	if err != nil && r != nil && apperrors.KindOf(err) == apperrors.KindForbidden {
		r.metrics.IncDenial(string(req.Resource), string(req.Action))
	}
	return err
}

// ── error helpers ──

const reasonNotFound = "not_found"

// notFound turns a missing row into a NotFound error on field; other errors
// pass through.
func notFound(err error, message, field string) error {
	if repository.IsNotFound(err) {
		return apperrors.NotFound(message, apperrors.Detail{Field: field, Reason: reasonNotFound})
	}
	return err
}

func requireAuth(p *policy.Principal) error {
	if p == nil || p.ID == "" {
		return apperrors.Unauthorized("authentication required")
	}
	return nil
}

func actorID(p *policy.Principal) string {
	if p == nil {
		return ""
	}
	return p.ID
}
