package http

import (
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	CourtID       string     `form:"court_id" binding:"omitempty,uuid"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending confirmed active rejected completed"`
	UserID        string     `form:"user_id"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil && r.StartTimeFrom.After(*r.StartTimeTo) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type CourtTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CustomerBody struct {
	Name  string `json:"name" binding:"omitempty,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=40"`
}

type BookingResponse struct {
	ID               string       `json:"id"`
	Court            CourtTag     `json:"court"`
	UserID           string       `json:"user_id,omitempty"`
	StartTime        time.Time    `json:"start_time"`
	EndTime          time.Time    `json:"end_time"`
	Status           string       `json:"status"`
	PaymentStatus    string       `json:"payment_status"`
	Price            string       `json:"price"`
	SeasonalSeriesID *string      `json:"seasonal_series_id,omitempty"`
	ParentBookingID  *string      `json:"parent_booking_id,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	Customer         CustomerBody `json:"customer"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		Court:            CourtTag{ID: b.CourtID, Name: b.CourtName},
		UserID:           b.UserID,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		Price:            b.Price.StringFixed(2),
		SeasonalSeriesID: b.SeasonalSeriesID,
		ParentBookingID:  b.ParentBookingID,
		Notes:            b.Notes,
		Customer: CustomerBody{
			Name:  b.Customer.Name,
			Email: b.Customer.Email,
			Phone: b.Customer.Phone,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type CreateBookingRequest struct {
	CourtID   string       `json:"court_id" binding:"required,uuid"`
	StartTime time.Time    `json:"start_time" binding:"required"`
	EndTime   time.Time    `json:"end_time" binding:"required"`
	Notes     string       `json:"notes" binding:"omitempty,max=1000"`
	Customer  CustomerBody `json:"customer"`
}

// Validate performs custom validation for CreateBookingRequest.
func (r *CreateBookingRequest) Validate() error {
	if !r.StartTime.Before(r.EndTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed rejected completed"`
}
