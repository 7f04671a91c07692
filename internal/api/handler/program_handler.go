package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

type ProgramHandler struct {
	programSvc service.ProgramService
}

func NewProgramHandler(programSvc service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programSvc: programSvc}
}

// ListPrograms
// GET /api/v1/programs?institution_id=
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	var q dto.ProgramListQuery
	if !bindQuery(c, &q) {
		return
	}

	items, total, err := h.programSvc.List(c.Request.Context(), &q)
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(items, dto.NewProgramResponse), total, limit, offset)
}

// GetProgram
// GET /api/v1/programs/:id
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	prog, err := h.programSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewProgramResponse(prog))
}

// CreateProgram
// POST /api/v1/programs
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req dto.CreateProgramRequest
	if !bindJSON(c, &req) {
		return
	}

	prog, err := h.programSvc.Create(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewProgramResponse(prog))
}

// UpdateProgram
// PATCH /api/v1/programs/:id
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	var req dto.UpdateProgramRequest
	if !bindJSON(c, &req) {
		return
	}

	prog, err := h.programSvc.Update(c.Request.Context(), c.Param("id"), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewProgramResponse(prog))
}

// DeleteProgram
// DELETE /api/v1/programs/:id
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	reason, ok := deleteReason(c)
	if !ok {
		return
	}

	if err := h.programSvc.Delete(c.Request.Context(), c.Param("id"), reason, principalFrom(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}
