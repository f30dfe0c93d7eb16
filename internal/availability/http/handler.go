package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-season-backend/internal/availability"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/request"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/response"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ForDate(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var req ForDateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "date must be formatted as YYYY-MM-DD", err)
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	day, err := h.service.ForDate(c.Request.Context(), uri.ID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewDayResponse(day))
}
