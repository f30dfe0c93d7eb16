package http

import (
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/availability"
)

type ForDateRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type SlotResponse struct {
	Time      string `json:"time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
	Price     string `json:"price"`
	Duration  int    `json:"duration"`
	Priced    bool   `json:"priced"`
}

type DayResponse struct {
	CourtID   string         `json:"court_id"`
	CourtName string         `json:"court_name"`
	Date      string         `json:"date"`
	Timezone  string         `json:"timezone"`
	Slots     []SlotResponse `json:"slots"`
}

// NewDayResponse formats slot times on the facility's wall clock.
func NewDayResponse(d *availability.Day) DayResponse {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		loc = time.UTC
	}
	resp := DayResponse{
		CourtID:   d.CourtID,
		CourtName: d.CourtName,
		Date:      d.Date.Format("2006-01-02"),
		Timezone:  d.Timezone,
		Slots:     make([]SlotResponse, len(d.Slots)),
	}
	for i, s := range d.Slots {
		resp.Slots[i] = SlotResponse{
			Time:      s.Start.In(loc).Format("15:04"),
			EndTime:   s.End.In(loc).Format("15:04"),
			Available: s.Available,
			Price:     s.Price.StringFixed(2),
			Duration:  s.DurationMinutes,
			Priced:    s.Priced,
		}
	}
	return resp
}
