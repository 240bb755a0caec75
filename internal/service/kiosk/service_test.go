package kiosk

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/employee"
	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
	"github.com/presensia/presensia-backend-go/internal/domain/location"
	"github.com/presensia/presensia-backend-go/internal/pkg/geo"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
)

// ========================================
// IN-MEMORY FAKES
// ========================================

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]kiosk.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]kiosk.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s kiosk.Session) (kiosk.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (kiosk.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return kiosk.Session{}, kiosk.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return false, kiosk.ErrSessionNotFound
	}
	if s.Status != from {
		return false, nil
	}
	s.Status = to
	f.sessions[id] = s
	return true, nil
}

func (f *fakeSessionRepo) Update(_ context.Context, s kiosk.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[s.ID]
	if !ok {
		return kiosk.ErrSessionNotFound
	}
	stored.Error = s.Error
	stored.PhotoURL = s.PhotoURL
	f.sessions[s.ID] = stored
	return nil
}

func (f *fakeSessionRepo) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, s := range f.sessions {
		if s.Terminal() && s.CreatedAt.Before(cutoff) {
			delete(f.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeLocationRepo struct {
	locations map[string]location.Location
}

func (f *fakeLocationRepo) GetByID(_ context.Context, id string) (location.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return location.Location{}, location.ErrLocationNotFound
	}
	return l, nil
}

func (f *fakeLocationRepo) GetByIDs(_ context.Context, ids []string) ([]location.Location, error) {
	var out []location.Location
	for _, id := range ids {
		if l, ok := f.locations[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocationRepo) List(_ context.Context) ([]location.Location, error) {
	var out []location.Location
	for _, l := range f.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type staticVerifier struct {
	err error
}

func (v staticVerifier) VerifyToken(string, string) error { return v.err }

type fakeAttendance struct {
	mu       sync.Mutex
	requests []attendance.CheckInRequest
	err      error
}

func (f *fakeAttendance) CheckIn(_ context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return attendance.AttendanceResponse{}, f.err
	}
	return attendance.AttendanceResponse{EmployeeID: req.EmployeeID}, nil
}

func (f *fakeAttendance) CheckOut(context.Context, attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{}, nil
}

func (f *fakeAttendance) PauseBreak(context.Context, string) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{}, nil
}

func (f *fakeAttendance) ResumeBreak(context.Context, string) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{}, nil
}

func (f *fakeAttendance) SessionStatus(context.Context, string) (attendance.SessionStatusResponse, error) {
	return attendance.SessionStatusResponse{}, nil
}

func (f *fakeAttendance) History(context.Context, string, attendance.HistoryFilter) (attendance.ListAttendanceResponse, error) {
	return attendance.ListAttendanceResponse{}, nil
}

func (f *fakeAttendance) calls() []attendance.CheckInRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]attendance.CheckInRequest(nil), f.requests...)
}

type fakeStore struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeStore) Upload(_ context.Context, path string, _ io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	return "http://localhost/uploads/" + path, nil
}

func (f *fakeStore) Delete(context.Context, string) error { return nil }

func (f *fakeStore) Exists(context.Context, string) (bool, error) { return false, nil }

type staticCamera struct {
	frame []byte
	err   error
}

func (c staticCamera) Capture(context.Context) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.frame, nil
}

// ========================================
// PHONE-SIDE SERVICE
// ========================================

const (
	officeLat = -6.200000
	officeLng = 106.816666
)

func newSessionService(t *testing.T, verifier TokenVerifier, hub *realtime.Hub) (*SessionServiceImpl, *fakeSessionRepo) {
	t.Helper()

	repo := newFakeSessionRepo()
	radius := 150
	empRepo := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", FullName: "Budi Santoso", HomeLocationID: "loc-hq"},
	}}
	locRepo := &fakeLocationRepo{locations: map[string]location.Location{
		"loc-hq": {ID: "loc-hq", Name: "Head Office", Latitude: officeLat, Longitude: officeLng, RadiusMeters: &radius},
	}}

	svc := NewSessionService(repo, empRepo, locRepo, verifier, hub, config.KioskConfig{
		PairingTimeout: 50 * time.Millisecond,
	})
	return svc, repo
}

func validCreateRequest() kiosk.CreateSessionRequest {
	return kiosk.CreateSessionRequest{
		KioskID:    "kiosk-lobby",
		Token:      "tok-1",
		EmployeeID: "emp-1",
		Latitude:   officeLat,
		Longitude:  officeLng,
	}
}

func TestCreateSessionPending(t *testing.T) {
	svc, repo := newSessionService(t, staticVerifier{}, realtime.NewHub())

	resp, err := svc.CreateSession(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, kiosk.StatusPending, resp.Status)
	assert.Equal(t, "kiosk-lobby", resp.KioskID)
	assert.Equal(t, "Budi Santoso", resp.EmployeeName)
	assert.Equal(t, "loc-hq", resp.CenterID)

	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.InDelta(t, officeLat, stored.UserLatitude, 0.000001)
}

func TestCreateSessionTokenMismatch(t *testing.T) {
	svc, _ := newSessionService(t, staticVerifier{err: kiosk.ErrTokenMismatch}, nil)

	_, err := svc.CreateSession(context.Background(), validCreateRequest())
	assert.ErrorIs(t, err, kiosk.ErrTokenMismatch)
}

func TestCreateSessionKioskBusy(t *testing.T) {
	svc, _ := newSessionService(t, staticVerifier{err: kiosk.ErrKioskBusy}, nil)

	_, err := svc.CreateSession(context.Background(), validCreateRequest())
	assert.ErrorIs(t, err, kiosk.ErrKioskBusy)
}

func TestCreateSessionOutsideFence(t *testing.T) {
	svc, _ := newSessionService(t, staticVerifier{}, nil)

	req := validCreateRequest()
	req.Longitude = officeLng + 0.01

	_, err := svc.CreateSession(context.Background(), req)
	var fenceErr *geo.FenceError
	require.True(t, errors.As(err, &fenceErr))
}

func TestWaitForResultTimeout(t *testing.T) {
	hub := realtime.NewHub()
	svc, repo := newSessionService(t, staticVerifier{}, hub)

	created, err := svc.CreateSession(context.Background(), validCreateRequest())
	require.NoError(t, err)

	resp, err := svc.WaitForResult(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusFailed, resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, kiosk.ErrPairingTimeout.Error(), *resp.Error)

	// The stored record is untouched by the local timeout.
	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusPending, stored.Status)
}

func TestWaitForResultSeesCompletion(t *testing.T) {
	hub := realtime.NewHub()
	svc, repo := newSessionService(t, staticVerifier{}, hub)

	created, err := svc.CreateSession(context.Background(), validCreateRequest())
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		ok, _ := repo.TransitionStatus(context.Background(), created.ID, kiosk.StatusPending, kiosk.StatusCompleted)
		if ok {
			hub.Publish("session:"+created.ID, realtime.Event{Event: "completed"})
		}
	}()

	resp, err := svc.WaitForResult(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusCompleted, resp.Status)
}

// ========================================
// RUNNER
// ========================================

func runnerConfig() config.KioskConfig {
	return config.KioskConfig{
		TokenRotationInterval: time.Hour,
		PairingTimeout:        time.Second,
		CaptureCountdown:      0,
		ResetDelay:            0,
	}
}

func seedSession(t *testing.T, repo *fakeSessionRepo, status string) kiosk.Session {
	t.Helper()
	session, err := repo.Create(context.Background(), kiosk.Session{
		ID:            "sess-1",
		KioskID:       "kiosk-lobby",
		EmployeeID:    "emp-1",
		EmployeeName:  "Budi Santoso",
		CenterID:      "loc-hq",
		Status:        status,
		UserLatitude:  officeLat,
		UserLongitude: officeLng,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	return session
}

func TestRunnerServeCompletes(t *testing.T) {
	repo := newFakeSessionRepo()
	att := &fakeAttendance{}
	store := &fakeStore{}
	hub := realtime.NewHub()

	runner := NewRunner("kiosk-lobby", repo, att, store, staticCamera{frame: []byte("jpeg")}, hub, runnerConfig())
	session := seedSession(t, repo, kiosk.StatusPending)

	runner.serve(context.Background(), session.ID)

	stored, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusCompleted, stored.Status)
	require.NotNil(t, stored.PhotoURL)
	assert.Contains(t, *stored.PhotoURL, "attendance/emp-1/sess-1.jpg")

	calls := att.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "emp-1", calls[0].EmployeeID)
	assert.InDelta(t, officeLat, calls[0].Latitude, 0.000001)
	require.NotNil(t, calls[0].DeviceID)
	assert.Equal(t, "kiosk-lobby", *calls[0].DeviceID)
	require.NotNil(t, calls[0].PhotoURL)
}

func TestRunnerClaimIsIdempotent(t *testing.T) {
	repo := newFakeSessionRepo()
	att := &fakeAttendance{}
	hub := realtime.NewHub()

	runner := NewRunner("kiosk-lobby", repo, att, &fakeStore{}, staticCamera{frame: []byte("jpeg")}, hub, runnerConfig())
	session := seedSession(t, repo, kiosk.StatusPending)

	runner.serve(context.Background(), session.ID)
	runner.serve(context.Background(), session.ID) // duplicate wake-up

	assert.Len(t, att.calls(), 1)
}

func TestRunnerCameraError(t *testing.T) {
	repo := newFakeSessionRepo()
	att := &fakeAttendance{}
	hub := realtime.NewHub()

	runner := NewRunner("kiosk-lobby", repo, att, &fakeStore{}, staticCamera{err: kiosk.ErrCameraUnavailable}, hub, runnerConfig())
	session := seedSession(t, repo, kiosk.StatusPending)

	runner.serve(context.Background(), session.ID)

	stored, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Equal(t, "camera error", *stored.Error)
	assert.Empty(t, att.calls())
}

func TestRunnerUploadError(t *testing.T) {
	repo := newFakeSessionRepo()
	att := &fakeAttendance{}
	hub := realtime.NewHub()

	runner := NewRunner("kiosk-lobby", repo, att, &fakeStore{err: errors.New("disk full")}, staticCamera{frame: []byte("jpeg")}, hub, runnerConfig())
	session := seedSession(t, repo, kiosk.StatusPending)

	runner.serve(context.Background(), session.ID)

	stored, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Equal(t, "upload error", *stored.Error)
	assert.Empty(t, att.calls())
}

func TestRunnerCheckInFailureFailsSession(t *testing.T) {
	repo := newFakeSessionRepo()
	att := &fakeAttendance{err: attendance.ErrSessionOpenToday}
	hub := realtime.NewHub()

	runner := NewRunner("kiosk-lobby", repo, att, &fakeStore{}, staticCamera{frame: []byte("jpeg")}, hub, runnerConfig())
	session := seedSession(t, repo, kiosk.StatusPending)

	runner.serve(context.Background(), session.ID)

	stored, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, kiosk.StatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Equal(t, attendance.ErrSessionOpenToday.Error(), *stored.Error)
}

func TestRunnerTokenVerification(t *testing.T) {
	repo := newFakeSessionRepo()
	hub := realtime.NewHub()
	runner := NewRunner("kiosk-lobby", repo, &fakeAttendance{}, &fakeStore{}, staticCamera{}, hub, runnerConfig())

	current := runner.CurrentQR()
	assert.Equal(t, "kiosk-lobby", current.KioskID)
	assert.NotEmpty(t, current.Token)

	assert.NoError(t, runner.VerifyToken(current.Token))
	assert.ErrorIs(t, runner.VerifyToken("stale-token"), kiosk.ErrTokenMismatch)

	runner.setBusy(true)
	assert.ErrorIs(t, runner.VerifyToken(current.Token), kiosk.ErrKioskBusy)
}

func TestRunnerRotationInvalidatesOldToken(t *testing.T) {
	repo := newFakeSessionRepo()
	hub := realtime.NewHub()
	runner := NewRunner("kiosk-lobby", repo, &fakeAttendance{}, &fakeStore{}, staticCamera{}, hub, runnerConfig())

	old := runner.CurrentQR().Token
	runner.rotateToken()

	assert.NotEqual(t, old, runner.CurrentQR().Token)
	assert.ErrorIs(t, runner.VerifyToken(old), kiosk.ErrTokenMismatch)
}

func TestRegistryVerifyToken(t *testing.T) {
	registry := NewRegistry()
	assert.ErrorIs(t, registry.VerifyToken("kiosk-ghost", "tok"), kiosk.ErrUnknownKiosk)

	runner := NewRunner("kiosk-lobby", newFakeSessionRepo(), &fakeAttendance{}, &fakeStore{}, staticCamera{}, realtime.NewHub(), runnerConfig())
	registry.Register(runner)

	assert.NoError(t, registry.VerifyToken("kiosk-lobby", runner.CurrentQR().Token))
}

func TestFrameCameraKeepsFreshestFrame(t *testing.T) {
	camera := NewFrameCamera()
	camera.Push([]byte("old"))
	camera.Push([]byte("new"))

	frame, err := camera.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), frame)
}

func TestFrameCameraCaptureTimesOut(t *testing.T) {
	camera := NewFrameCamera()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := camera.Capture(ctx)
	assert.ErrorIs(t, err, kiosk.ErrCameraUnavailable)
}
