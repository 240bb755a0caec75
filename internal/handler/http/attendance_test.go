package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/pkg/geo"
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
)

// fakeAttendanceService returns canned results so handler tests exercise only
// decoding, claim extraction and error mapping.
type fakeAttendanceService struct {
	checkInReq  attendance.CheckInRequest
	checkOutReq attendance.CheckOutRequest
	employeeID  string
	filter      attendance.HistoryFilter

	response attendance.AttendanceResponse
	status   attendance.SessionStatusResponse
	list     attendance.ListAttendanceResponse
	err      error
}

func (f *fakeAttendanceService) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	f.checkInReq = req
	return f.response, f.err
}

func (f *fakeAttendanceService) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	f.checkOutReq = req
	return f.response, f.err
}

func (f *fakeAttendanceService) PauseBreak(ctx context.Context, employeeID string) (attendance.AttendanceResponse, error) {
	f.employeeID = employeeID
	return f.response, f.err
}

func (f *fakeAttendanceService) ResumeBreak(ctx context.Context, employeeID string) (attendance.AttendanceResponse, error) {
	f.employeeID = employeeID
	return f.response, f.err
}

func (f *fakeAttendanceService) SessionStatus(ctx context.Context, employeeID string) (attendance.SessionStatusResponse, error) {
	f.employeeID = employeeID
	return f.status, f.err
}

func (f *fakeAttendanceService) History(ctx context.Context, employeeID string, filter attendance.HistoryFilter) (attendance.ListAttendanceResponse, error) {
	f.employeeID = employeeID
	f.filter = filter
	return f.list, f.err
}

// authenticatedRequest attaches verified JWT claims the way jwtauth.Verifier
// would after validating the Authorization header.
func authenticatedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)

	ja := jwtauth.New("HS256", []byte("handler-test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"employee_id": "emp-001",
		"type":        "access",
	})
	require.NoError(t, err)

	return req.WithContext(jwtauth.NewContext(req.Context(), token, nil))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// ===== HANDLER TESTS =====

// Test CheckIn - Success
func TestAttendanceHandler_CheckIn_Success(t *testing.T) {
	svc := &fakeAttendanceService{
		response: attendance.AttendanceResponse{
			ID:         "emp-001_1770000000000",
			EmployeeID: "emp-001",
			Date:       "2026-03-10",
			ShiftName:  "Morning",
			TimeIn:     "2026-03-10 09:00:00",
			Status:     "open",
		},
	}
	handler := NewAttendanceHandler(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"employee_id": "someone-else",
		"latitude":    -6.2001,
		"longitude":   106.8167,
	})
	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-in", body)
	w := httptest.NewRecorder()

	// Act
	handler.CheckIn(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp["success"].(bool))

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "emp-001", data["employee_id"])
	assert.Equal(t, "open", data["status"])

	// The id in the body must never win over the authenticated identity.
	assert.Equal(t, "emp-001", svc.checkInReq.EmployeeID)
	assert.InDelta(t, -6.2001, svc.checkInReq.Latitude, 1e-9)
}

// Test CheckIn - Invalid JSON
func TestAttendanceHandler_CheckIn_InvalidJSON(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceService{})

	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-in", []byte("invalid json"))
	w := httptest.NewRecorder()

	// Act
	handler.CheckIn(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp["success"].(bool))
}

// Test CheckIn - Open Session Conflict
func TestAttendanceHandler_CheckIn_OpenSessionConflict(t *testing.T) {
	svc := &fakeAttendanceService{err: attendance.ErrSessionOpenToday}
	handler := NewAttendanceHandler(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"latitude":  -6.2001,
		"longitude": 106.8167,
	})
	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-in", body)
	w := httptest.NewRecorder()

	// Act
	handler.CheckIn(w, req)

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp["success"].(bool))
}

// Test CheckIn - Outside Geofence
func TestAttendanceHandler_CheckIn_OutsideFence(t *testing.T) {
	svc := &fakeAttendanceService{err: &geo.FenceError{
		LocationID:     "loc-hq",
		LocationName:   "Head Office",
		DistanceMeters: 412,
		RadiusMeters:   150,
	}}
	handler := NewAttendanceHandler(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"latitude":  -6.21,
		"longitude": 106.83,
	})
	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-in", body)
	w := httptest.NewRecorder()

	// Act
	handler.CheckIn(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp["success"].(bool))

	errDetail := resp["error"].(map[string]interface{})
	details := errDetail["details"].(map[string]interface{})
	assert.Equal(t, "Head Office", details["location"])
	assert.Equal(t, "412", details["distance_meters"])
	assert.Equal(t, "150", details["radius_meters"])
}

// Test CheckIn - Validation Errors
func TestAttendanceHandler_CheckIn_ValidationErrors(t *testing.T) {
	svc := &fakeAttendanceService{err: validator.ValidationErrors{
		{Field: "latitude", Message: "latitude must be a finite number"},
	}}
	handler := NewAttendanceHandler(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"latitude":  -6.2001,
		"longitude": 106.8167,
	})
	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-in", body)
	w := httptest.NewRecorder()

	// Act
	handler.CheckIn(w, req)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp["success"].(bool))
}

// Test CheckOut - Success
func TestAttendanceHandler_CheckOut_Success(t *testing.T) {
	workHours := 7.5
	timeOut := "2026-03-10 17:00:00"
	svc := &fakeAttendanceService{
		response: attendance.AttendanceResponse{
			ID:         "emp-001_1770000000000",
			EmployeeID: "emp-001",
			TimeOut:    &timeOut,
			WorkHours:  &workHours,
			Status:     "present",
		},
	}
	handler := NewAttendanceHandler(svc)

	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-out", []byte("{}"))
	w := httptest.NewRecorder()

	// Act
	handler.CheckOut(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp["success"].(bool))

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "present", data["status"])
	assert.Equal(t, 7.5, data["work_hours"])
	assert.Equal(t, "emp-001", svc.checkOutReq.EmployeeID)
}

// Test CheckOut - No Open Session
func TestAttendanceHandler_CheckOut_NoOpenSession(t *testing.T) {
	svc := &fakeAttendanceService{err: attendance.ErrNoOpenSession}
	handler := NewAttendanceHandler(svc)

	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/check-out", []byte("{}"))
	w := httptest.NewRecorder()

	// Act
	handler.CheckOut(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp["success"].(bool))
}

// Test StartBreak - Already Paused
func TestAttendanceHandler_StartBreak_AlreadyPaused(t *testing.T) {
	svc := &fakeAttendanceService{err: attendance.ErrAlreadyPaused}
	handler := NewAttendanceHandler(svc)

	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/break/start", nil)
	w := httptest.NewRecorder()

	// Act
	handler.StartBreak(w, req)

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "emp-001", svc.employeeID)
}

// Test EndBreak - Success
func TestAttendanceHandler_EndBreak_Success(t *testing.T) {
	svc := &fakeAttendanceService{
		response: attendance.AttendanceResponse{
			EmployeeID:        "emp-001",
			TotalBreakMinutes: 30,
			OnBreak:           false,
			Status:            "open",
		},
	}
	handler := NewAttendanceHandler(svc)

	req := authenticatedRequest(t, http.MethodPost, "/api/v1/attendance/break/end", nil)
	w := httptest.NewRecorder()

	// Act
	handler.EndBreak(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(30), data["total_break_minutes"])
	assert.Equal(t, false, data["on_break"])
}

// Test Status - Success
func TestAttendanceHandler_Status_Success(t *testing.T) {
	svc := &fakeAttendanceService{
		status: attendance.SessionStatusResponse{
			HasOpenSession: true,
			OnBreak:        false,
			CanCheckIn:     false,
			CanCheckOut:    true,
		},
	}
	handler := NewAttendanceHandler(svc)

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/attendance/status", nil)
	w := httptest.NewRecorder()

	// Act
	handler.Status(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["has_open_session"])
	assert.Equal(t, true, data["can_check_out"])
	assert.Equal(t, "emp-001", svc.employeeID)
}

// Test History - Pagination Meta
func TestAttendanceHandler_History_PaginationMeta(t *testing.T) {
	svc := &fakeAttendanceService{
		list: attendance.ListAttendanceResponse{
			TotalCount: 45,
			Page:       2,
			Limit:      20,
			Attendances: []attendance.AttendanceResponse{
				{ID: "emp-001_1", EmployeeID: "emp-001", Date: "2026-03-09"},
			},
		},
	}
	handler := NewAttendanceHandler(svc)

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/attendance/history?page=2&limit=20&start_date=2026-03-01", nil)
	w := httptest.NewRecorder()

	// Act
	handler.History(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp["success"].(bool))

	meta := resp["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(45), meta["total_items"])
	assert.Equal(t, float64(3), meta["total_pages"])

	// Query params made it into the filter
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 20, svc.filter.Limit)
	require.NotNil(t, svc.filter.StartDate)
	assert.Equal(t, "2026-03-01", *svc.filter.StartDate)
}

// Test History - Invalid Page
func TestAttendanceHandler_History_InvalidPage(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceService{})

	req := authenticatedRequest(t, http.MethodGet, "/api/v1/attendance/history?page=abc", nil)
	w := httptest.NewRecorder()

	// Act
	handler.History(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
