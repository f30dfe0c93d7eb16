package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-season-backend/internal/auth"
	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/request"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/response"
	"github.com/nekogravitycat/court-season-backend/internal/waitlist"
)

type Handler struct {
	service waitlist.Service
}

func NewHandler(service waitlist.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Join(c *gin.Context) {
	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	email := req.Email
	if email == "" && req.Phone == "" {
		email = auth.GetUserEmail(c)
	}

	e, err := h.service.Join(c.Request.Context(), waitlist.JoinRequest{
		CourtID:   req.CourtID,
		UserID:    auth.GetUserID(c),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Contact:   waitlist.Contact{Email: email, Phone: req.Phone},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewEntryResponse(e))
}

// List shows customers their own entries; providers see every queue.
func (h *Handler) List(c *gin.Context) {
	var req ListWaitlistRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	filter := waitlist.Filter{CourtID: req.CourtID, StartTime: req.StartTime}
	if !auth.IsProvider(c) {
		filter.UserID = auth.GetUserID(c)
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = NewEntryResponse(e)
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *Handler) Withdraw(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !auth.IsProvider(c) && e.UserID != auth.GetUserID(c) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Fulfill(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	if err := h.service.Fulfill(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
