package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-season-backend/internal/auth"
	"github.com/nekogravitycat/court-season-backend/internal/waitlist"
)

const (
	courtID = "6f1c2d2e-8a53-4a39-9f5c-0b8f4f0f3a11"
	entryID = "9b2f7c1a-2d4e-4f6a-8b1c-3e5d7f9a0b2c"
)

type fakeService struct {
	entry      *waitlist.Entry
	lastJoin   waitlist.JoinRequest
	lastFilter waitlist.Filter
	withdrawn  string
	fulfilled  string
}

func (f *fakeService) Join(ctx context.Context, req waitlist.JoinRequest) (*waitlist.Entry, error) {
	f.lastJoin = req
	return &waitlist.Entry{ID: entryID, CourtID: req.CourtID, UserID: req.UserID, Position: 3, Status: waitlist.StatusWaiting}, nil
}

func (f *fakeService) GetByID(ctx context.Context, id string) (*waitlist.Entry, error) {
	if f.entry == nil {
		return nil, waitlist.ErrNotFound
	}
	return f.entry, nil
}

func (f *fakeService) List(ctx context.Context, filter waitlist.Filter) ([]*waitlist.Entry, error) {
	f.lastFilter = filter
	return nil, nil
}

func (f *fakeService) Withdraw(ctx context.Context, id string) error {
	f.withdrawn = id
	return nil
}

func (f *fakeService) Fulfill(ctx context.Context, id string) error {
	f.fulfilled = id
	return nil
}

func (f *fakeService) NotifyOnRelease(ctx context.Context, courtID string, start, end time.Time) error {
	return nil
}

func setup(svc waitlist.Service, userID string, role auth.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authStub := func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userEmail", userID+"@example.com")
		c.Set("userRole", role)
		c.Next()
	}
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), authStub, auth.RequireRole(auth.RoleProvider))
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJoin(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc, "u1", auth.RoleCustomer)

	w := do(r, http.MethodPost, "/v1/waitlist", map[string]any{
		"court_id":   courtID,
		"start_time": "2030-03-04T18:00:00Z",
		"end_time":   "2030-03-04T19:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp EntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Position)
	assert.Equal(t, "u1", svc.lastJoin.UserID)
	assert.Equal(t, "u1@example.com", svc.lastJoin.Contact.Email, "falls back to the account email")
}

func TestJoinRejectsInvertedWindow(t *testing.T) {
	r := setup(&fakeService{}, "u1", auth.RoleCustomer)
	w := do(r, http.MethodPost, "/v1/waitlist", map[string]any{
		"court_id":   courtID,
		"start_time": "2030-03-04T19:00:00Z",
		"end_time":   "2030-03-04T18:00:00Z",
		"email":      "a@x.io",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListScopesCustomers(t *testing.T) {
	svc := &fakeService{}

	w := do(setup(svc, "u1", auth.RoleCustomer), http.MethodGet, "/v1/waitlist?court_id="+courtID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.lastFilter.UserID)

	w = do(setup(svc, "p1", auth.RoleProvider), http.MethodGet, "/v1/waitlist?court_id="+courtID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.lastFilter.UserID)
}

func TestWithdrawRequiresOwnership(t *testing.T) {
	svc := &fakeService{entry: &waitlist.Entry{ID: entryID, UserID: "u1"}}

	w := do(setup(svc, "u2", auth.RoleCustomer), http.MethodDelete, "/v1/waitlist/"+entryID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.withdrawn)

	w = do(setup(svc, "u1", auth.RoleCustomer), http.MethodDelete, "/v1/waitlist/"+entryID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, entryID, svc.withdrawn)
}

func TestFulfillIsProviderOnly(t *testing.T) {
	svc := &fakeService{}

	w := do(setup(svc, "u1", auth.RoleCustomer), http.MethodPost, "/v1/waitlist/"+entryID+"/fulfill", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(setup(svc, "p1", auth.RoleProvider), http.MethodPost, "/v1/waitlist/"+entryID+"/fulfill", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, entryID, svc.fulfilled)
}
