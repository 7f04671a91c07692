package dto

import (
	"time"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// CreateOfferRequest dates are RFC 3339 timestamps. Type and status are
// checked against their enums by the offer rules so every violation is
// reported together.
type CreateOfferRequest struct {
	InstitutionID       string    `json:"institution_id"       binding:"required,uuid"`
	ProgramID           *string   `json:"program_id"           binding:"omitempty,uuid"`
	Title               string    `json:"title"                binding:"required,max=255"`
	Description         *string   `json:"description"`
	Type                string    `json:"type"                 binding:"required"`
	Status              string    `json:"status"`
	PublicationDate     time.Time `json:"publication_date"     binding:"required"`
	ApplicationDeadline time.Time `json:"application_deadline" binding:"required"`
}

type UpdateOfferRequest struct {
	Title               *string                `json:"title" binding:"omitempty,min=1,max=255"`
	Description         model.Nullable[string] `json:"description"`
	Type                *string                `json:"type"`
	Status              *string                `json:"status"`
	ProgramID           model.Nullable[string] `json:"program_id" binding:"omitempty,uuid"`
	PublicationDate     *time.Time             `json:"publication_date"`
	ApplicationDeadline *time.Time             `json:"application_deadline"`
}

func (r *UpdateOfferRequest) ToPatch() model.OfferPatch {
	p := model.OfferPatch{
		Title:               r.Title,
		Description:         r.Description,
		ProgramID:           r.ProgramID,
		PublicationDate:     r.PublicationDate,
		ApplicationDeadline: r.ApplicationDeadline,
	}
	if r.Type != nil {
		t := model.OfferType(*r.Type)
		p.Type = &t
	}
	if r.Status != nil {
		s := model.OfferStatus(*r.Status)
		p.Status = &s
	}
	return p
}

type OfferListQuery struct {
	ListQuery
	InstitutionID string `form:"institution_id" binding:"omitempty,uuid"`
	ProgramID     string `form:"program_id"     binding:"omitempty,uuid"`
	Type          string `form:"type"`
	Status        string `form:"status"`
}

type OfferResponse struct {
	Audit
	InstitutionID       string    `json:"institution_id"`
	ProgramID           *string   `json:"program_id,omitempty"`
	Title               string    `json:"title"`
	Description         *string   `json:"description,omitempty"`
	Type                string    `json:"type"`
	Status              string    `json:"status"`
	PublicationDate     time.Time `json:"publication_date"`
	ApplicationDeadline time.Time `json:"application_deadline"`
}

func NewOfferResponse(o *model.Offer) OfferResponse {
	return OfferResponse{
		Audit:               auditOf(o.Lifecycle),
		InstitutionID:       o.InstitutionID,
		ProgramID:           o.ProgramID,
		Title:               o.Title,
		Description:         o.Description,
		Type:                string(o.Type),
		Status:              string(o.Status),
		PublicationDate:     o.PublicationDate,
		ApplicationDeadline: o.ApplicationDeadline,
	}
}
