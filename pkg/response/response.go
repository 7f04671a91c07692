package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/errors"
)

// RequestIDKey is the gin context key the request-id middleware writes.
const RequestIDKey = "request_id"

// Response is the success envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the failure payload.
type ErrorBody struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Details   []apperrors.Detail `json:"details,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

// ErrorEnvelope wraps ErrorBody under "error".
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Pagination describes a limit/offset window.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// PageData is the list payload.
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// ── success ──

// OK 200
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// NoContent 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// OKPage 200 with pagination metadata.
func OKPage(c *gin.Context, list interface{}, total int64, limit, offset int) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data: PageData{
			List:       list,
			Pagination: Pagination{Limit: limit, Offset: offset, Total: total},
		},
	})
}

// ── errors ──

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err as an error envelope. Errors outside the AppError taxonomy
// become a generic 500; the original error is attached to the gin context so
// the request logger can record it.
func Fail(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	c.JSON(StatusFor(appErr.Kind), ErrorEnvelope{Error: ErrorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: c.GetString(RequestIDKey),
	}})
}

// Error writes a bare error envelope.
func Error(c *gin.Context, httpStatus int, code, message string, details ...apperrors.Detail) {
	c.JSON(httpStatus, ErrorEnvelope{Error: ErrorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: c.GetString(RequestIDKey),
	}})
}

// BadRequest 400, used for payloads that fail to bind.
func BadRequest(c *gin.Context, message string, details ...apperrors.Detail) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message, details...)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, "FORBIDDEN", message)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
}
