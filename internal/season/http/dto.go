package http

import (
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/court-season-backend/internal/booking/http"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/request"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
	"github.com/nekogravitycat/court-season-backend/internal/season"
)

const dateLayout = "2006-01-02"

var (
	errInvalidDate = apperror.Validation("dates must be formatted as YYYY-MM-DD")
	errInvalidTime = apperror.Validation("times must be formatted as HH:MM")
)

type CreateSeriesRequest struct {
	CourtID   string                   `json:"court_id" binding:"required,uuid"`
	StartDate string                   `json:"start_date" binding:"required"`
	EndDate   string                   `json:"end_date" binding:"required"`
	DayOfWeek *int                     `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime string                   `json:"start_time" binding:"required"`
	EndTime   string                   `json:"end_time" binding:"required"`
	Notes     string                   `json:"notes" binding:"omitempty,max=1000"`
	Customer  bookingHttp.CustomerBody `json:"customer"`
}

// ToServiceRequest parses dates and times into a service request.
func (r *CreateSeriesRequest) ToServiceRequest(userID string) (season.CreateRequest, error) {
	startDate, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return season.CreateRequest{}, errInvalidDate
	}
	endDate, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return season.CreateRequest{}, errInvalidDate
	}
	startTime, err := timeofday.Parse(r.StartTime)
	if err != nil {
		return season.CreateRequest{}, errInvalidTime
	}
	endTime, err := timeofday.ParseClose(r.EndTime)
	if err != nil {
		return season.CreateRequest{}, errInvalidTime
	}

	return season.CreateRequest{
		UserID:    userID,
		CourtID:   r.CourtID,
		StartDate: startDate,
		EndDate:   endDate,
		DayOfWeek: time.Weekday(*r.DayOfWeek),
		StartTime: startTime,
		EndTime:   endTime,
		Notes:     r.Notes,
		Customer: booking.Customer{
			Name:  r.Customer.Name,
			Email: r.Customer.Email,
			Phone: r.Customer.Phone,
		},
	}, nil
}

type ListSeriesRequest struct {
	request.ListParams
	CourtID string `form:"court_id" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,oneof=pending confirmed active rejected completed"`
	UserID  string `form:"user_id"`
}

type ActivateRequest struct {
	SkipConflictCheck bool `json:"skip_conflict_check"`
}

type OccurrenceResponse struct {
	ID            string    `json:"id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Price         string    `json:"price"`
}

type SeriesResponse struct {
	ID            string                   `json:"id"`
	Court         bookingHttp.CourtTag     `json:"court"`
	UserID        string                   `json:"user_id,omitempty"`
	StartDate     string                   `json:"start_date"`
	EndDate       string                   `json:"end_date"`
	DayOfWeek     int                      `json:"day_of_week"`
	DayName       string                   `json:"day_name"`
	StartTime     string                   `json:"start_time"`
	EndTime       string                   `json:"end_time"`
	Status        string                   `json:"status"`
	PaymentStatus string                   `json:"payment_status"`
	TotalPrice    string                   `json:"total_price"`
	SlotCount     int                      `json:"slot_count"`
	Notes         string                   `json:"notes,omitempty"`
	Customer      bookingHttp.CustomerBody `json:"customer"`
	Bookings      []OccurrenceResponse     `json:"bookings,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func NewSeriesResponse(s *season.Series) SeriesResponse {
	resp := SeriesResponse{
		ID:            s.ID,
		Court:         bookingHttp.CourtTag{ID: s.CourtID, Name: s.CourtName},
		UserID:        s.UserID,
		StartDate:     s.StartDate.Format(dateLayout),
		EndDate:       s.EndDate.Format(dateLayout),
		DayOfWeek:     int(s.DayOfWeek),
		DayName:       s.DayOfWeek.String(),
		StartTime:     s.StartTime.String(),
		EndTime:       s.EndTime.String(),
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		TotalPrice:    s.TotalPrice.StringFixed(2),
		SlotCount:     len(s.Bookings),
		Notes:         s.Notes,
		Customer: bookingHttp.CustomerBody{
			Name:  s.Customer.Name,
			Email: s.Customer.Email,
			Phone: s.Customer.Phone,
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, b := range s.Bookings {
		resp.Bookings = append(resp.Bookings, OccurrenceResponse{
			ID:            b.ID,
			StartTime:     b.StartTime,
			EndTime:       b.EndTime,
			Status:        string(b.Status),
			PaymentStatus: string(b.PaymentStatus),
			Price:         b.Price.StringFixed(2),
		})
	}
	return resp
}

type CreateSeriesResponse struct {
	ID        string         `json:"id"`
	SlotCount int            `json:"slot_count"`
	Series    SeriesResponse `json:"series"`
}

type ConflictResponse struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	CourtName string `json:"court_name"`
	BookingID string `json:"booking_id"`
}

func NewConflictResponses(conflicts []booking.Conflict) []ConflictResponse {
	out := make([]ConflictResponse, len(conflicts))
	for i, c := range conflicts {
		out[i] = ConflictResponse{Date: c.Date, Time: c.Time, CourtName: c.CourtName, BookingID: c.BookingID}
	}
	return out
}

type ActivationConflictResponse struct {
	HasConflicts bool               `json:"has_conflicts"`
	Conflicts    []ConflictResponse `json:"conflicts"`
}

type PreviewOccurrence struct {
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Price     string    `json:"price"`
}

type PreviewResponse struct {
	Court       bookingHttp.CourtTag `json:"court"`
	SlotCount   int                  `json:"slot_count"`
	TotalPrice  string               `json:"total_price"`
	Occurrences []PreviewOccurrence  `json:"occurrences"`
	Conflicts   []ConflictResponse   `json:"conflicts"`
}

func NewPreviewResponse(p *season.Preview) PreviewResponse {
	resp := PreviewResponse{
		Court:       bookingHttp.CourtTag{ID: p.CourtID, Name: p.CourtName},
		SlotCount:   p.SlotCount(),
		TotalPrice:  p.TotalPrice.StringFixed(2),
		Occurrences: make([]PreviewOccurrence, len(p.Occurrences)),
		Conflicts:   NewConflictResponses(p.Conflicts),
	}
	for i, o := range p.Occurrences {
		resp.Occurrences[i] = PreviewOccurrence{
			Date:      o.Date.Format(dateLayout),
			StartTime: o.Start,
			EndTime:   o.End,
			Price:     o.Price.StringFixed(2),
		}
	}
	return resp
}

type AutoCompleteResponse struct {
	Completed int `json:"completed"`
}
