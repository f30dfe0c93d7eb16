package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-season-backend/internal/availability"
)

const courtID = "6f1c2d2e-8a53-4a39-9f5c-0b8f4f0f3a11"

type fakeService struct {
	gotDate time.Time
}

func (f *fakeService) ForDate(ctx context.Context, id string, date time.Time) (*availability.Day, error) {
	f.gotDate = date
	loc, _ := time.LoadLocation("Europe/Madrid")
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, loc)
	return &availability.Day{
		CourtID:   id,
		CourtName: "Court 1",
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		Timezone:  "Europe/Madrid",
		Slots: []availability.Slot{{
			Start:           start,
			End:             start.Add(90 * time.Minute),
			Available:       true,
			Price:           decimal.RequireFromString("37.5"),
			DurationMinutes: 90,
			Priced:          true,
		}},
	}, nil
}

func setup(svc availability.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), func(c *gin.Context) { c.Next() })
	return r
}

func TestForDate(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/courts/"+courtID+"/availability?date=2024-01-01", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01-01", resp.Date)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, SlotResponse{Time: "08:00", EndTime: "09:30", Available: true, Price: "37.50", Duration: 90, Priced: true}, resp.Slots[0])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), svc.gotDate)
}

func TestForDateRejectsBadDate(t *testing.T) {
	r := setup(&fakeService{})

	for _, q := range []string{"", "?date=01-01-2024", "?date=2024-02-30"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/courts/"+courtID+"/availability"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}
