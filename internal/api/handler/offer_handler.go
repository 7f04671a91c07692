package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

type OfferHandler struct {
	offerSvc       service.OfferService
	applicationSvc service.ApplicationService
}

func NewOfferHandler(offerSvc service.OfferService, applicationSvc service.ApplicationService) *OfferHandler {
	return &OfferHandler{offerSvc: offerSvc, applicationSvc: applicationSvc}
}

// ListOffers reports the effective status: published offers past their
// deadline are listed as expired.
// GET /api/v1/offers?institution_id=&program_id=&type=&status=
func (h *OfferHandler) ListOffers(c *gin.Context) {
	var q dto.OfferListQuery
	if !bindQuery(c, &q) {
		return
	}

	items, total, err := h.offerSvc.List(c.Request.Context(), &q)
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(items, dto.NewOfferResponse), total, limit, offset)
}

// GetOffer
// GET /api/v1/offers/:id
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offer, err := h.offerSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewOfferResponse(offer))
}

// CreateOffer
// POST /api/v1/offers
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var req dto.CreateOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	offer, err := h.offerSvc.Create(c.Request.Context(), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, dto.NewOfferResponse(offer))
}

// UpdateOffer
// PATCH /api/v1/offers/:id
func (h *OfferHandler) UpdateOffer(c *gin.Context) {
	var req dto.UpdateOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	offer, err := h.offerSvc.Update(c.Request.Context(), c.Param("id"), &req, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, dto.NewOfferResponse(offer))
}

// DeleteOffer
// DELETE /api/v1/offers/:id
func (h *OfferHandler) DeleteOffer(c *gin.Context) {
	reason, ok := deleteReason(c)
	if !ok {
		return
	}

	if err := h.offerSvc.Delete(c.Request.Context(), c.Param("id"), reason, principalFrom(c)); err != nil {
		response.Fail(c, err)
		return
	}

	response.NoContent(c)
}

// ListApplications lists applications submitted to the offer.
// GET /api/v1/offers/:id/applications?status=
func (h *OfferHandler) ListApplications(c *gin.Context) {
	var q dto.ApplicationListQuery
	if !bindQuery(c, &q) {
		return
	}

	items, total, err := h.applicationSvc.ListByOffer(c.Request.Context(), c.Param("id"), &q, principalFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	limit, offset := q.Window()
	response.OKPage(c, dto.MapSlice(items, dto.NewApplicationResponse), total, limit, offset)
}
