package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

type CandidateProfileHandler struct {
	profileSvc     service.CandidateProfileService
	applicationSvc service.ApplicationService
}

func NewCandidateProfileHandler(profileSvc service.CandidateProfileService, applicationSvc service.ApplicationService) *CandidateProfileHandler {
	return &CandidateProfileHandler{profileSvc: profileSvc, applicationSvc: applicationSvc}
}

// ListProfiles
// GET /api/v1/candidate-profiles
func (h *CandidateProfileHandler) ListProfiles(c *gin.Context) {
	var q dto.ListQuery
	if !bindQuery(c, &q) {
		return
	}

	items, total, err := h.profileSvc.List(c.Request.Context(), &q, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(items, dto.NewCandidateProfileResponse), total, limit, offset)
}

// GetProfile
// GET /api/v1/candidate-profiles/:id
func (h *CandidateProfileHandler) GetProfile(c *gin.Context) {
	cp, err := h.profileSvc.GetByID(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewCandidateProfileResponse(cp))
}

// GetProfileByUser
// GET /api/v1/users/:id/candidate-profile
func (h *CandidateProfileHandler) GetProfileByUser(c *gin.Context) {
	cp, err := h.profileSvc.GetByUserID(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewCandidateProfileResponse(cp))
}

// CreateProfile attaches a profile to a user that has none.
// POST /api/v1/candidate-profiles
func (h *CandidateProfileHandler) CreateProfile(c *gin.Context) {
	var req dto.CreateCandidateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	cp, err := h.profileSvc.Create(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewCandidateProfileResponse(cp))
}

// UpdateProfile; an explicit null clears a field.
// PATCH /api/v1/candidate-profiles/:id
func (h *CandidateProfileHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateCandidateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	cp, err := h.profileSvc.Update(c.Request.Context(), c.Param("id"), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewCandidateProfileResponse(cp))
}

// DeleteProfile
// DELETE /api/v1/candidate-profiles/:id
func (h *CandidateProfileHandler) DeleteProfile(c *gin.Context) {
	reason, ok := deleteReason(c)
	if !ok {
		return
	}

	if err := h.profileSvc.Delete(c.Request.Context(), c.Param("id"), reason, principalFrom(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}

// ListApplications lists the candidate's own applications.
// GET /api/v1/candidate-profiles/:id/applications?status=
func (h *CandidateProfileHandler) ListApplications(c *gin.Context) {
	var q dto.ApplicationListQuery
	if !bindQuery(c, &q) {
		return
	}

	items, total, err := h.applicationSvc.ListByCandidateProfile(c.Request.Context(), c.Param("id"), &q, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(items, dto.NewApplicationResponse), total, limit, offset)
}
