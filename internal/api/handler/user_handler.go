package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers
// GET /api/v1/users?institution_id=&role=
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q dto.UserListQuery
	if !bindQuery(c, &q) {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &q, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(users, func(u *model.User) dto.UserResponse {
		return dto.NewUserResponse(u, nil)
	}), total, limit, offset)
}

// GetUser returns the user with the candidate profile embedded.
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, profile, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewUserResponse(user, profile))
}

// CreateUser is the administrative create; a candidate profile is optional.
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, profile, err := h.userSvc.Create(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewUserResponse(user, profile))
}

// UpdateUser applies a partial update. Roles replace the current set.
// PATCH /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, profile, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewUserResponse(user, profile))
}

// DeleteUser
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	reason, ok := deleteReason(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), reason, principalFrom(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}
