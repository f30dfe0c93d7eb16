package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-season-backend/internal/auth"
	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/request"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/response"
	"github.com/nekogravitycat/court-season-backend/internal/season"
)

type Handler struct {
	service season.Service
}

func NewHandler(service season.Service) *Handler {
	return &Handler{service: service}
}

// Preview expands a request without saving it.
func (h *Handler) Preview(c *gin.Context) {
	req, ok := h.bindCreate(c)
	if !ok {
		return
	}

	p, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPreviewResponse(p))
}

func (h *Handler) Create(c *gin.Context) {
	req, ok := h.bindCreate(c)
	if !ok {
		return
	}

	s, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateSeriesResponse{
		ID:        s.ID,
		SlotCount: len(s.Bookings),
		Series:    NewSeriesResponse(s),
	})
}

func (h *Handler) bindCreate(c *gin.Context) (season.CreateRequest, bool) {
	var body CreateSeriesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return season.CreateRequest{}, false
	}
	req, err := body.ToServiceRequest(auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return season.CreateRequest{}, false
	}
	return req, true
}

func (h *Handler) List(c *gin.Context) {
	var req ListSeriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filterUserID := auth.GetUserID(c)
	if auth.IsProvider(c) {
		filterUserID = req.UserID
	}

	items, total, err := h.service.List(c.Request.Context(), season.Filter{
		CourtID:   req.CourtID,
		UserID:    filterUserID,
		Status:    req.Status,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]SeriesResponse, len(items))
	for i, s := range items {
		out[i] = NewSeriesResponse(s)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(out, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !auth.IsProvider(c) && s.UserID != auth.GetUserID(c) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	c.JSON(http.StatusOK, NewSeriesResponse(s))
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	h.transition(c, h.service.MarkPaid)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id, actorID string) (*season.Series, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	s, err := fn(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSeriesResponse(s))
}

// Activate responds 409 with the conflict list when activation is blocked,
// and 402 when the series is unpaid.
func (h *Handler) Activate(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	var body ActivateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}

	res, err := h.service.Activate(c.Request.Context(), uri.ID, body.SkipConflictCheck, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.HasConflicts {
		c.JSON(http.StatusConflict, ActivationConflictResponse{
			HasConflicts: true,
			Conflicts:    NewConflictResponses(res.Conflicts),
		})
		return
	}

	c.JSON(http.StatusOK, NewSeriesResponse(res.Series))
}

func (h *Handler) AutoComplete(c *gin.Context) {
	n, err := h.service.AutoComplete(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, AutoCompleteResponse{Completed: n})
}
