package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

type InstitutionHandler struct {
	institutionSvc service.InstitutionService
}

func NewInstitutionHandler(institutionSvc service.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{institutionSvc: institutionSvc}
}

// ListInstitutions
// GET /api/v1/institutions
func (h *InstitutionHandler) ListInstitutions(c *gin.Context) {
	var q dto.InstitutionListQuery
	if !bindQuery(c, &q) {
		return
	}

	items, total, err := h.institutionSvc.List(c.Request.Context(), &q)
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(items, dto.NewInstitutionResponse), total, limit, offset)
}

// GetInstitution
// GET /api/v1/institutions/:id
func (h *InstitutionHandler) GetInstitution(c *gin.Context) {
	inst, err := h.institutionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewInstitutionResponse(inst))
}

// CreateInstitution
// POST /api/v1/institutions
func (h *InstitutionHandler) CreateInstitution(c *gin.Context) {
	var req dto.CreateInstitutionRequest
	if !bindJSON(c, &req) {
		return
	}

	inst, err := h.institutionSvc.Create(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewInstitutionResponse(inst))
}

// UpdateInstitution
// PATCH /api/v1/institutions/:id
func (h *InstitutionHandler) UpdateInstitution(c *gin.Context) {
	var req dto.UpdateInstitutionRequest
	if !bindJSON(c, &req) {
		return
	}

	inst, err := h.institutionSvc.Update(c.Request.Context(), c.Param("id"), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewInstitutionResponse(inst))
}

// DeleteInstitution soft-deletes; programs and offers are left in place.
// DELETE /api/v1/institutions/:id
func (h *InstitutionHandler) DeleteInstitution(c *gin.Context) {
	reason, ok := deleteReason(c)
	if !ok {
		return
	}

	if err := h.institutionSvc.Delete(c.Request.Context(), c.Param("id"), reason, principalFrom(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}
