package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

type ApplicationHandler struct {
	applicationSvc service.ApplicationService
}

func NewApplicationHandler(applicationSvc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationSvc: applicationSvc}
}

// SubmitApplication
// POST /api/v1/applications
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req dto.CreateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationSvc.Create(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewApplicationResponse(app))
}

// GetApplication
// GET /api/v1/applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	app, err := h.applicationSvc.GetByID(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewApplicationResponse(app))
}

// UpdateStatus moves an application through review.
// PATCH /api/v1/applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateApplicationStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewApplicationResponse(app))
}

// WithdrawApplication soft-deletes; the candidate may apply again afterwards.
// DELETE /api/v1/applications/:id
func (h *ApplicationHandler) WithdrawApplication(c *gin.Context) {
	reason, ok := deleteReason(c)
	if !ok {
		return
	}

	if err := h.applicationSvc.Delete(c.Request.Context(), c.Param("id"), reason, principalFrom(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}
