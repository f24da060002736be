package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
	"github.com/jakechorley/volunteer-hours/pkg/memstore"
)

const (
	adminUser     = "admin"
	adminPassword = "correct horse"
)

type testServer struct {
	handler http.Handler
	admin   *model.Admin
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	logger := zap.NewNop()
	store := memstore.NewDB()
	reg := prometheus.NewRegistry()
	metrics, err := services.NewMetrics(reg)
	require.NoError(t, err)

	locks := services.NewLocks()
	ledger := services.NewCapacityLedger(store, locks, logger)
	accrual := services.NewAccrualEngine(store, locks, nil, metrics, logger)
	tracker := services.NewAttendanceTracker(store, ledger, accrual, locks, nil, metrics, logger)
	registry := services.NewVolunteerRegistry(store, logger)

	admin, _, err := services.SeedDefaultAdmin(ctx, store, logger, services.AdminSeed{
		Username: adminUser,
		Email:    "admin@example.org",
		Password: adminPassword,
	})
	require.NoError(t, err)

	server := NewServer(Services{
		Tracker:  tracker,
		Accrual:  accrual,
		Ledger:   ledger,
		Registry: registry,
		Admins:   store,
	}, reg, logger)

	return &testServer{handler: server.Router(), admin: admin}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(adminUser, adminPassword)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: event e1", model.ErrNotFound), http.StatusNotFound},
		{model.ErrCapacityExceeded, http.StatusConflict},
		{model.ErrConflict, http.StatusConflict},
		{model.ErrInvalidTimeRange, http.StatusBadRequest},
		{model.ErrValidation, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestHealthzAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vms_checkins_total")
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.SetBasicAuth(adminUser, "wrong")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.SetBasicAuth("nobody", adminPassword)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceToApprovalFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/volunteers", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.org",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	volunteer := decode(t, rec)
	assert.Equal(t, "ACTIVE", volunteer["status"])
	assert.Equal(t, adminUser, volunteer["last_modified_by"])
	volunteerID := volunteer["id"].(string)

	rec = s.do(t, http.MethodPost, "/v1/events", map[string]any{
		"title":    "Food bank",
		"date":     "2025-03-15",
		"location": "Community hall",
		"capacity": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	eventID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/v1/attendance/checkin", map[string]string{
		"volunteer_id": volunteerID,
		"event_id":     eventID,
		"at":           "2025-03-15T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	attendance := decode(t, rec)
	assert.Equal(t, "OPEN", attendance["state"])
	attendanceID := attendance["id"].(string)

	rec = s.do(t, http.MethodGet, "/v1/events/"+eventID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	event := decode(t, rec)
	assert.Equal(t, float64(0), event["capacity"])
	assert.Equal(t, float64(1), event["current_registrations"])

	rec = s.do(t, http.MethodPost, "/v1/attendance/"+attendanceID+"/checkout", map[string]string{
		"at": "2025-03-15T11:10:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	attendance = decode(t, rec)
	assert.Equal(t, "CLOSED", attendance["state"])
	assert.Equal(t, float64(3), attendance["hours_worked"])

	rec = s.do(t, http.MethodGet, "/v1/timesheets?volunteer_id="+volunteerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sheets := decode(t, rec)["timesheets"].([]any)
	require.Len(t, sheets, 1)
	line := sheets[0].(map[string]any)
	assert.Equal(t, float64(3), line["total_hours"])
	assert.Equal(t, "PENDING", line["approval_status"])
	timesheetID := line["id"].(string)

	rec = s.do(t, http.MethodPost, "/v1/timesheets/"+timesheetID+"/reject", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation", decode(t, rec)["kind"])

	rec = s.do(t, http.MethodPost, "/v1/timesheets/"+timesheetID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode(t, rec)
	assert.Equal(t, "APPROVED", approved["approval_status"])
	assert.Equal(t, s.admin.ID, approved["approved_by"])

	rec = s.do(t, http.MethodPost, "/v1/timesheets/"+timesheetID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Conflict", decode(t, rec)["kind"])
}

func TestCheckIn_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/events", map[string]any{
		"title":    "Full event",
		"date":     "2025-03-15",
		"capacity": 0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	eventID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/v1/volunteers", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.org",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	volunteerID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/v1/attendance/checkin", map[string]string{
		"volunteer_id": volunteerID,
		"event_id":     eventID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CapacityExceeded", decode(t, rec)["kind"])

	rec = s.do(t, http.MethodPost, "/v1/attendance/checkin", map[string]string{
		"volunteer_id": volunteerID,
		"event_id":     "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/attendance/checkin", map[string]string{
		"volunteer_id": volunteerID,
		"event_id":     eventID,
		"at":           "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/attendance/checkin", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEvent_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/events", map[string]any{
		"title":    "Food bank",
		"date":     "15/03/2025",
		"capacity": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/events", map[string]any{
		"title":    "Food bank",
		"date":     "2025-03-15",
		"capacity": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/events", map[string]any{
		"title": "Food bank",
		"date":  "2025-03-15",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/events", map[string]any{
		"title":    "Food bank",
		"date":     "2025-03-15",
		"location": "Community hall",
		"capacity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	eventID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPut, "/v1/events/"+eventID, map[string]any{
		"title":    "Soup kitchen",
		"capacity": 50,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	event := decode(t, rec)
	assert.Equal(t, "Soup kitchen", event["title"])
	assert.Equal(t, "Community hall", event["location"])
	assert.Equal(t, float64(2), event["capacity"])

	rec = s.do(t, http.MethodPut, "/v1/events/"+eventID, map[string]any{"date": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/events/"+eventID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/events/"+eventID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/events/"+eventID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateTimesheet_InvalidRange(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/timesheets/generate", map[string]string{
		"volunteer_id": "vol-1",
		"start":        "2025-03-31",
		"end":          "2025-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidTimeRange", decode(t, rec)["kind"])
}

func TestDeleteUnknownAttendance(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodDelete, "/v1/attendance/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
