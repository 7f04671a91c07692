package dto

import (
	"time"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// ── CandidateProfile ──

// CandidateProfileInput is the nested profile of a user create or registration.
type CandidateProfileInput struct {
	FullName    *string `json:"full_name"     binding:"omitempty,max=255"`
	DateOfBirth *Date   `json:"date_of_birth"`
	CPF         *string `json:"cpf"           binding:"omitempty,cpf"`
}

func (in *CandidateProfileInput) ToModel(userID string) *model.CandidateProfile {
	return &model.CandidateProfile{
		UserID:      userID,
		FullName:    in.FullName,
		DateOfBirth: datePtr(in.DateOfBirth),
		CPF:         in.CPF,
	}
}

type CreateCandidateProfileRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	CandidateProfileInput
}

// UpdateCandidateProfileRequest distinguishes an omitted key from an explicit
// null, which clears the column.
type UpdateCandidateProfileRequest struct {
	FullName    model.Nullable[string] `json:"full_name"     binding:"omitempty,max=255"`
	DateOfBirth model.Nullable[Date]   `json:"date_of_birth"`
	CPF         model.Nullable[string] `json:"cpf"           binding:"omitempty,cpf"`
}

func (r *UpdateCandidateProfileRequest) ToPatch() model.CandidateProfilePatch {
	return model.CandidateProfilePatch{
		FullName:    r.FullName,
		DateOfBirth: nullableDate(r.DateOfBirth),
		CPF:         r.CPF,
	}
}

type CandidateProfileResponse struct {
	Audit
	UserID      string  `json:"user_id"`
	FullName    *string `json:"full_name,omitempty"`
	DateOfBirth *Date   `json:"date_of_birth,omitempty"`
	CPF         *string `json:"cpf,omitempty"`
}

func NewCandidateProfileResponse(cp *model.CandidateProfile) CandidateProfileResponse {
	return CandidateProfileResponse{
		Audit:       auditOf(cp.Lifecycle),
		UserID:      cp.UserID,
		FullName:    cp.FullName,
		DateOfBirth: dateOf(cp.DateOfBirth),
		CPF:         cp.CPF,
	}
}

// ── User ──

type CreateUserRequest struct {
	Email            string                 `json:"email"            binding:"required,max=255"`
	Password         string                 `json:"password"         binding:"required,max=72"`
	Roles            []string               `json:"roles"`
	InstitutionID    *string                `json:"institution_id"   binding:"omitempty,uuid"`
	CandidateProfile *CandidateProfileInput `json:"candidate_profile"`
}

// RegisterRequest is the public sign-up payload.
type RegisterRequest = CreateUserRequest

// UpdateUserRequest: roles replace the whole set when present; password is
// re-hashed; candidate_profile is patched (or created) in the same transaction.
type UpdateUserRequest struct {
	Email            *string                        `json:"email"          binding:"omitempty,max=255"`
	Password         *string                        `json:"password"       binding:"omitempty,max=72"`
	Roles            []string                       `json:"roles"`
	InstitutionID    model.Nullable[string]         `json:"institution_id" binding:"omitempty,uuid"`
	CandidateProfile *UpdateCandidateProfileRequest `json:"candidate_profile"`
}

func (r *UpdateUserRequest) ToPatch() model.UserPatch {
	p := model.UserPatch{
		Email:         r.Email,
		Password:      r.Password,
		Roles:         r.Roles,
		InstitutionID: r.InstitutionID,
	}
	if r.CandidateProfile != nil {
		cp := r.CandidateProfile.ToPatch()
		p.CandidateProfile = &cp
	}
	return p
}

type UserListQuery struct {
	ListQuery
	InstitutionID string `form:"institution_id" binding:"omitempty,uuid"`
	Role          string `form:"role"`
}

type UserResponse struct {
	Audit
	Email            string                    `json:"email"`
	Roles            []string                  `json:"roles"`
	InstitutionID    *string                   `json:"institution_id"`
	CandidateProfile *CandidateProfileResponse `json:"candidate_profile,omitempty"`
}

func NewUserResponse(u *model.User, cp *model.CandidateProfile) UserResponse {
	resp := UserResponse{
		Audit:         auditOf(u.Lifecycle),
		Email:         u.Email,
		Roles:         u.RoleNames(),
		InstitutionID: u.InstitutionID,
	}
	if cp != nil {
		p := NewCandidateProfileResponse(cp)
		resp.CandidateProfile = &p
	}
	return resp
}

// ── Application ──

type CreateApplicationRequest struct {
	CandidateProfileID string `json:"candidate_profile_id" binding:"required,uuid"`
	OfferID            string `json:"offer_id"             binding:"required,uuid"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" binding:"required,max=50"`
}

type DeleteRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=255"`
}

type ApplicationListQuery struct {
	ListQuery
	Status string `form:"status"`
}

type ApplicationResponse struct {
	Audit
	CandidateProfileID string    `json:"candidate_profile_id"`
	OfferID            string    `json:"offer_id"`
	Status             string    `json:"status"`
	SubmittedAt        time.Time `json:"submitted_at"`
}

func NewApplicationResponse(a *model.Application) ApplicationResponse {
	return ApplicationResponse{
		Audit:              auditOf(a.Lifecycle),
		CandidateProfileID: a.CandidateProfileID,
		OfferID:            a.OfferID,
		Status:             a.Status,
		SubmittedAt:        a.CreatedAt,
	}
}
