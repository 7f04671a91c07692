package dto

import (
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
)

// ── Institution ──

type CreateInstitutionRequest struct {
	Name        string  `json:"name"        binding:"required,max=255"`
	Description *string `json:"description"`
}

type UpdateInstitutionRequest struct {
	Name        *string                `json:"name"        binding:"omitempty,min=1,max=255"`
	Description model.Nullable[string] `json:"description"`
}

func (r *UpdateInstitutionRequest) ToPatch() model.InstitutionPatch {
	return model.InstitutionPatch{Name: r.Name, Description: r.Description}
}

type InstitutionListQuery struct {
	ListQuery
	Name string `form:"name"`
}

type InstitutionResponse struct {
	Audit
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func NewInstitutionResponse(i *model.Institution) InstitutionResponse {
	return InstitutionResponse{Audit: auditOf(i.Lifecycle), Name: i.Name, Description: i.Description}
}

// ── Program ──

type CreateProgramRequest struct {
	InstitutionID string  `json:"institution_id" binding:"required,uuid"`
	Name          string  `json:"name"           binding:"required,max=255"`
	Description   *string `json:"description"`
}

type UpdateProgramRequest struct {
	Name        *string                `json:"name"        binding:"omitempty,min=1,max=255"`
	Description model.Nullable[string] `json:"description"`
}

func (r *UpdateProgramRequest) ToPatch() model.ProgramPatch {
	return model.ProgramPatch{Name: r.Name, Description: r.Description}
}

type ProgramListQuery struct {
	ListQuery
	InstitutionID string `form:"institution_id" binding:"omitempty,uuid"`
}

type ProgramResponse struct {
	Audit
	InstitutionID string  `json:"institution_id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
}

func NewProgramResponse(p *model.Program) ProgramResponse {
	return ProgramResponse{
		Audit:         auditOf(p.Lifecycle),
		InstitutionID: p.InstitutionID,
		Name:          p.Name,
		Description:   p.Description,
	}
}

// ── Role ──

type CreateRoleRequest struct {
	Name        string  `json:"name"        binding:"required,role_name"`
	Description *string `json:"description" binding:"omitempty,max=300"`
}

type RoleResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func NewRoleResponse(r *model.Role) RoleResponse {
	return RoleResponse{ID: r.ID, Name: r.Name, Description: r.Description}
}

// ── helpers ──

// MapSlice converts a page of models into responses.
func MapSlice[M any, R any](items []M, fn func(*M) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
