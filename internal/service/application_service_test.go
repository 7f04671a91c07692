package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// ── Create ──

func TestApplicationService_Create_ExpiredOffer(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	user, profile := registerCandidate(t, env, "eva@example.com", "Eva")

	// exactly at the deadline is already too late
	env.svc.Application.(*applicationService).now = func() time.Time { return cat.offer.ApplicationDeadline }

	_, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(user))
	expectAppError(t, err, apperrors.KindValidation, "offer_id", invariant.ReasonExpired)
}

func TestApplicationService_Create_MissingReferences(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	user, profile := registerCandidate(t, env, "fabio@example.com", "Fabio")
	ctx := context.Background()
	p := principalOf(user)

	_, err := env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: "missing-offer"}, p)
	expectAppError(t, err, apperrors.KindNotFound, "offer_id", reasonNotFound)

	_, err = env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: "missing-profile", OfferID: cat.offer.ID}, p)
	expectAppError(t, err, apperrors.KindNotFound, "candidate_profile_id", reasonNotFound)
}

// The offer is checked before the profile: an expired offer wins over a
// missing profile.
func TestApplicationService_Create_CheckOrder(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	user, _ := registerCandidate(t, env, "gabi@example.com", "Gabi")
	env.svc.Application.(*applicationService).now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: "missing-profile", OfferID: cat.offer.ID}, principalOf(user))
	expectAppError(t, err, apperrors.KindValidation, "offer_id", invariant.ReasonExpired)
}

func TestApplicationService_Create_ForAnotherCandidateForbidden(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	_, victimProfile := registerCandidate(t, env, "hugo@example.com", "Hugo")
	attacker, _ := registerCandidate(t, env, "igor@example.com", "Igor")

	_, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: victimProfile.ID, OfferID: cat.offer.ID}, principalOf(attacker))
	expectAppError(t, err, apperrors.KindForbidden, "", "")
}

func TestApplicationService_Create_InstitutionAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	_, profile := registerCandidate(t, env, "julia@example.com", "Julia")
	admin := registerInstitutionAdmin(t, env, "staff@acme.edu", cat.institution.ID)

	_, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(admin))
	expectAppError(t, err, apperrors.KindForbidden, "", "")
}

func TestApplicationService_Create_SysAdminOnBehalf(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	_, profile := registerCandidate(t, env, "karen@example.com", "Karen")

	if _, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, sysAdmin); err != nil {
		t.Fatalf("sys_admin should apply on behalf of a candidate: %v", err)
	}
}

func TestApplicationService_Create_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: "a", OfferID: "b"}, anonymous)
	expectAppError(t, err, apperrors.KindUnauthorized, "", "")
}

// failingOfferRepo returns an infrastructure error on every read.
type failingOfferRepo struct {
	*mockOfferRepo
	err error
}

func (f *failingOfferRepo) GetByID(ctx context.Context, _ string) (*model.Offer, error) {
	<-ctx.Done()
	return nil, f.err
}

func TestApplicationService_Create_InfrastructureErrorPassesThrough(t *testing.T) {
	env := newTestEnv(t)
	_, profile := registerCandidate(t, env, "leo@example.com", "Leo")
	boom := errors.New("connection reset")

	// the profile lookup fails; the blocked offer lookup must be cancelled
	env.repo.Offer = &failingOfferRepo{mockOfferRepo: newMockOfferRepo(), err: context.Canceled}
	env.repo.CandidateProfile = &failingProfileRepo{mockCandidateProfileRepo: newMockCandidateProfileRepo(), err: boom}

	_, err := env.svc.Application.Create(context.Background(),
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: "any"}, sysAdmin)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the infrastructure error, got %v", err)
	}
	if apperrors.KindOf(err) != 0 {
		t.Errorf("infrastructure errors must not be typed, got %v", err)
	}
}

type failingProfileRepo struct {
	*mockCandidateProfileRepo
	err error
}

func (f *failingProfileRepo) GetByID(context.Context, string) (*model.CandidateProfile, error) {
	return nil, f.err
}

// ── Read ──

func TestApplicationService_GetByID_OwnerAndStaff(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()
	owner, profile := registerCandidate(t, env, "mia@example.com", "Mia")
	other, _ := registerCandidate(t, env, "nina@example.com", "Nina")
	admin := registerInstitutionAdmin(t, env, "reviewer@acme.edu", cat.institution.ID)

	app, err := env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(owner))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := env.svc.Application.GetByID(ctx, app.ID, principalOf(owner)); err != nil {
		t.Errorf("owner should read: %v", err)
	}
	if _, err := env.svc.Application.GetByID(ctx, app.ID, principalOf(admin)); err != nil {
		t.Errorf("institution_admin should read: %v", err)
	}
	_, err = env.svc.Application.GetByID(ctx, app.ID, principalOf(other))
	expectAppError(t, err, apperrors.KindForbidden, "", "")
}

func TestApplicationService_ListByCandidateProfile(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()
	owner, profile := registerCandidate(t, env, "otto@example.com", "Otto")
	other, _ := registerCandidate(t, env, "paula@example.com", "Paula")

	if _, err := env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(owner)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	apps, total, err := env.svc.Application.ListByCandidateProfile(ctx, profile.ID, &dto.ApplicationListQuery{}, principalOf(owner))
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if total != 1 || apps[0].OfferID != cat.offer.ID {
		t.Errorf("expected one application for the offer, got %d", total)
	}

	_, _, err = env.svc.Application.ListByCandidateProfile(ctx, profile.ID, &dto.ApplicationListQuery{}, principalOf(other))
	expectAppError(t, err, apperrors.KindForbidden, "", "")
}

func TestApplicationService_ListByOffer_StaffOnly(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()
	user, profile := registerCandidate(t, env, "rafa@example.com", "Rafa")
	if _, err := env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(user)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	_, total, err := env.svc.Application.ListByOffer(ctx, cat.offer.ID, &dto.ApplicationListQuery{}, sysAdmin)
	if err != nil || total != 1 {
		t.Fatalf("expected 1 application, got %d (%v)", total, err)
	}
	_, _, err = env.svc.Application.ListByOffer(ctx, cat.offer.ID, &dto.ApplicationListQuery{}, principalOf(user))
	expectAppError(t, err, apperrors.KindForbidden, "", "")
	_, _, err = env.svc.Application.ListByOffer(ctx, "missing", &dto.ApplicationListQuery{}, sysAdmin)
	expectAppError(t, err, apperrors.KindNotFound, "offer_id", reasonNotFound)
}

// ── UpdateStatus ──

func TestApplicationService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()
	user, profile := registerCandidate(t, env, "sara@example.com", "Sara")
	admin := registerInstitutionAdmin(t, env, "board@acme.edu", cat.institution.ID)

	app, _ := env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(user))

	updated, err := env.svc.Application.UpdateStatus(ctx, app.ID, &dto.UpdateApplicationStatusRequest{Status: "accepted"}, principalOf(admin))
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != "accepted" {
		t.Errorf("expected accepted, got %s", updated.Status)
	}

	_, err = env.svc.Application.UpdateStatus(ctx, app.ID, &dto.UpdateApplicationStatusRequest{Status: "accepted"}, principalOf(user))
	expectAppError(t, err, apperrors.KindForbidden, "", "")

	_, err = env.svc.Application.UpdateStatus(ctx, app.ID, &dto.UpdateApplicationStatusRequest{Status: "  "}, principalOf(admin))
	expectAppError(t, err, apperrors.KindValidation, "status", invariant.ReasonRequired)
}

// ── Delete ──

func TestApplicationService_Delete_IdempotentAndOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()
	owner, profile := registerCandidate(t, env, "tina@example.com", "Tina")
	other, _ := registerCandidate(t, env, "ugo@example.com", "Ugo")

	app, _ := env.svc.Application.Create(ctx,
		&dto.CreateApplicationRequest{CandidateProfileID: profile.ID, OfferID: cat.offer.ID}, principalOf(owner))

	err := env.svc.Application.Delete(ctx, app.ID, nil, principalOf(other))
	expectAppError(t, err, apperrors.KindForbidden, "", "")

	for i := 0; i < 2; i++ {
		if err := env.svc.Application.Delete(ctx, app.ID, nil, principalOf(owner)); err != nil {
			t.Fatalf("Delete #%d: %v", i+1, err)
		}
	}

	err = env.svc.Application.Delete(ctx, "never-existed", nil, principalOf(owner))
	expectAppError(t, err, apperrors.KindNotFound, "id", reasonNotFound)

	_, total, _ := env.repo.Application.List(ctx, repository.ApplicationFilter{OfferID: cat.offer.ID}, repository.ListParams{})
	if total != 0 {
		t.Errorf("withdrawn applications must not be listed, got %d", total)
	}
}
