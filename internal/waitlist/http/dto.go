package http

import (
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/waitlist"
)

type JoinWaitlistRequest struct {
	CourtID   string    `json:"court_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Email     string    `json:"email" binding:"omitempty,max=320"`
	Phone     string    `json:"phone" binding:"omitempty,max=40"`
}

type ListWaitlistRequest struct {
	CourtID   string     `form:"court_id" binding:"omitempty,uuid"`
	StartTime *time.Time `form:"start_time" time_format:"2006-01-02T15:04:05Z07:00"`
}

type EntryResponse struct {
	ID        string     `json:"id"`
	CourtID   string     `json:"court_id"`
	UserID    string     `json:"user_id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Position  int        `json:"position"`
	Status    string     `json:"status"`
	OfferedAt *time.Time `json:"offered_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewEntryResponse(e *waitlist.Entry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		CourtID:   e.CourtID,
		UserID:    e.UserID,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Email:     e.Email,
		Phone:     e.Phone,
		Position:  e.Position,
		Status:    string(e.Status),
		OfferedAt: e.OfferedAt,
		CreatedAt: e.CreatedAt,
	}
}
