package service

import (
	"context"
	"testing"
	"time"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/invariant"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

func offerRequest(institutionID string) *dto.CreateOfferRequest {
	return &dto.CreateOfferRequest{
		InstitutionID:       institutionID,
		Title:               "Spring Internship",
		Type:                string(model.OfferTypeInternship),
		PublicationDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		ApplicationDeadline: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ── Create ──

func TestOfferService_Create_DefaultsToDraft(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)

	offer, err := env.svc.Offer.Create(context.Background(), offerRequest(cat.institution.ID), sysAdmin)
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if offer.Status != model.OfferStatusDraft {
		t.Errorf("expected draft, got %s", offer.Status)
	}
}

func TestOfferService_Create_DeadlineMustFollowPublication(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)

	req := offerRequest(cat.institution.ID)
	req.ApplicationDeadline = req.PublicationDate

	_, err := env.svc.Offer.Create(context.Background(), req, sysAdmin)
	expectAppError(t, err, apperrors.KindValidation, "application_deadline", invariant.ReasonDeadlineNotAfter)
}

func TestOfferService_Create_RejectsUnknownTypeAndDeletedStatus(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()

	req := offerRequest(cat.institution.ID)
	req.Type = "bootcamp"
	_, err := env.svc.Offer.Create(ctx, req, sysAdmin)
	expectAppError(t, err, apperrors.KindValidation, "type", invariant.ReasonUnknownOfferType)

	req = offerRequest(cat.institution.ID)
	req.Status = string(model.OfferStatusDeleted)
	_, err = env.svc.Offer.Create(ctx, req, sysAdmin)
	expectAppError(t, err, apperrors.KindValidation, "status", invariant.ReasonInvalid)
}

func TestOfferService_Create_UnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()

	_, err := env.svc.Offer.Create(ctx, offerRequest("6b1f0f8e-0000-4000-8000-000000000000"), sysAdmin)
	expectAppError(t, err, apperrors.KindNotFound, "institution_id", reasonNotFound)

	req := offerRequest(cat.institution.ID)
	req.ProgramID = strPtr("6b1f0f8e-0000-4000-8000-000000000001")
	_, err = env.svc.Offer.Create(ctx, req, sysAdmin)
	expectAppError(t, err, apperrors.KindNotFound, "program_id", reasonNotFound)
}

func TestOfferService_Create_CandidateForbidden(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	user, _ := registerCandidate(t, env, "carla@example.com", "Carla")

	_, err := env.svc.Offer.Create(context.Background(), offerRequest(cat.institution.ID), principalOf(user))
	expectAppError(t, err, apperrors.KindForbidden, "", "")
	if _, err := env.svc.Offer.Create(context.Background(), offerRequest(cat.institution.ID), anonymous); apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Errorf("expected unauthorized for anonymous caller, got %v", err)
	}
}

func TestOfferService_Create_InstitutionAdminAllowed(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	admin := registerInstitutionAdmin(t, env, "admin@acme.edu", cat.institution.ID)

	if _, err := env.svc.Offer.Create(context.Background(), offerRequest(cat.institution.ID), principalOf(admin)); err != nil {
		t.Fatalf("institution_admin should create offers: %v", err)
	}
}

// ── Read ──

func TestOfferService_GetByID_ReportsExpiryLazily(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)

	env.svc.Offer.(*offerService).now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }
	offer, err := env.svc.Offer.GetByID(context.Background(), cat.offer.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if offer.Status != model.OfferStatusExpired {
		t.Errorf("expected expired, got %s", offer.Status)
	}

	stored, _ := env.repo.Offer.GetByID(context.Background(), cat.offer.ID)
	if stored.Status != model.OfferStatusPublished {
		t.Errorf("stored status must stay published, got %s", stored.Status)
	}
}

func TestOfferService_List_FiltersByEffectiveStatus(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()

	// open until 2025-05-01, still a draft
	if _, err := env.svc.Offer.Create(ctx, offerRequest(cat.institution.ID), sysAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc := env.svc.Offer.(*offerService)
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }

	expired, total, err := env.svc.Offer.List(ctx, &dto.OfferListQuery{Status: string(model.OfferStatusExpired)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || expired[0].ID != cat.offer.ID {
		t.Fatalf("expected only the published offer past its deadline, got %d", total)
	}

	published, total, _ := env.svc.Offer.List(ctx, &dto.OfferListQuery{Status: string(model.OfferStatusPublished)})
	if total != 0 || len(published) != 0 {
		t.Errorf("expected no published offers after the deadline, got %d", total)
	}

	_, _, err = env.svc.Offer.List(ctx, &dto.OfferListQuery{Type: "bootcamp"})
	expectAppError(t, err, apperrors.KindValidation, "type", invariant.ReasonUnknownOfferType)
}

func TestOfferService_List_Pagination(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := env.svc.Offer.Create(ctx, offerRequest(cat.institution.ID), sysAdmin); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, total, err := env.svc.Offer.List(ctx, &dto.OfferListQuery{ListQuery: dto.ListQuery{Limit: 2, Offset: 4}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 || len(page) != 1 {
		t.Errorf("expected total=5 and 1 row on the last page, got total=%d rows=%d", total, len(page))
	}
}

// ── Update ──

func TestOfferService_Update_WindowCheckedOnlyWhenDatesChange(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()

	title := "Fall Scholarship 2025"
	offer, err := env.svc.Offer.Update(ctx, cat.offer.ID, &dto.UpdateOfferRequest{Title: &title}, sysAdmin)
	if err != nil {
		t.Fatalf("title-only update should succeed: %v", err)
	}
	if offer.Title != title {
		t.Errorf("expected title %q, got %q", title, offer.Title)
	}

	early := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err = env.svc.Offer.Update(ctx, cat.offer.ID, &dto.UpdateOfferRequest{ApplicationDeadline: &early}, sysAdmin)
	expectAppError(t, err, apperrors.KindValidation, "application_deadline", invariant.ReasonDeadlineNotAfter)
}

func TestOfferService_Update_ClearsProgram(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)

	offer, err := env.svc.Offer.Update(context.Background(), cat.offer.ID,
		&dto.UpdateOfferRequest{ProgramID: model.Null[string]()}, sysAdmin)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if offer.ProgramID != nil {
		t.Errorf("expected program cleared, got %v", *offer.ProgramID)
	}
}

func TestOfferService_Update_DeletedOfferNotFound(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()

	if err := env.svc.Offer.Delete(ctx, cat.offer.ID, nil, sysAdmin); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	title := "x"
	_, err := env.svc.Offer.Update(ctx, cat.offer.ID, &dto.UpdateOfferRequest{Title: &title}, sysAdmin)
	expectAppError(t, err, apperrors.KindNotFound, "id", reasonNotFound)
}

// ── Delete ──

func TestOfferService_Delete_IdempotentAndMarksStatus(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.svc.Offer.Delete(ctx, cat.offer.ID, strPtr("closed"), sysAdmin); err != nil {
			t.Fatalf("Delete #%d should succeed: %v", i+1, err)
		}
	}

	stored, err := env.repo.Offer.GetByIDUnscoped(ctx, cat.offer.ID)
	if err != nil {
		t.Fatalf("unscoped read: %v", err)
	}
	if stored.Status != model.OfferStatusDeleted {
		t.Errorf("expected status deleted, got %s", stored.Status)
	}
	if *stored.DeletedBy != sysAdmin.ID {
		t.Errorf("expected deleted_by %s, got %s", sysAdmin.ID, *stored.DeletedBy)
	}

	if _, err := env.svc.Offer.GetByID(ctx, cat.offer.ID); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("deleted offer must be hidden, got %v", err)
	}

	deletes := 0
	for _, typ := range env.pub.types() {
		if typ == "offer.deleted" {
			deletes++
		}
	}
	if deletes != 1 {
		t.Errorf("expected exactly one offer.deleted event, got %d", deletes)
	}
}

func TestOfferService_Delete_UnknownID(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.Offer.Delete(context.Background(), "never-existed", nil, sysAdmin)
	expectAppError(t, err, apperrors.KindNotFound, "id", reasonNotFound)
}

func TestOfferService_Delete_CandidateForbiddenAndCounted(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalogue(t, env)
	user, _ := registerCandidate(t, env, "dani@example.com", "Dani")

	err := env.svc.Offer.Delete(context.Background(), cat.offer.ID, nil, principalOf(user))
	appErr := expectAppError(t, err, apperrors.KindForbidden, "", "")
	if !appErr.HasDetail("", policy.ReasonRoleRequired) {
		t.Errorf("expected role_required reason, got %+v", appErr.Details)
	}
}
