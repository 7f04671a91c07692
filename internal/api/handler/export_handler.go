package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

const (
	contentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCalendar = "text/calendar; charset=utf-8"
)

type ExportHandler struct {
	exportSvc service.ExportService
}

func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportApplications downloads the offer's applications as a workbook.
// GET /api/v1/offers/:id/applications/export
func (h *ExportHandler) ExportApplications(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportApplications(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// OfferCalendar serves the application window as an iCalendar feed.
// GET /api/v1/offers/:id/calendar.ics
func (h *ExportHandler) OfferCalendar(c *gin.Context) {
	body, filename, err := h.exportSvc.OfferCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeCalendar, []byte(body))
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}
