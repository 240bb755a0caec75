package kiosk

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
	"github.com/presensia/presensia-backend-go/internal/pkg/storage"
)

// Camera produces one photo frame per capture. The production implementation
// is FrameCamera, fed by the kiosk hardware over HTTP; tests substitute
// their own.
type Camera interface {
	// Capture returns the next frame or an error when the camera is
	// unavailable before ctx expires
	Capture(ctx context.Context) ([]byte, error)
}

// FrameCamera buffers frames pushed by the kiosk hardware endpoint and hands
// the freshest one to Capture.
type FrameCamera struct {
	frames chan []byte
}

func NewFrameCamera() *FrameCamera {
	return &FrameCamera{frames: make(chan []byte, 1)}
}

// Push makes a frame available to the next Capture, replacing any frame not
// yet consumed.
func (c *FrameCamera) Push(frame []byte) {
	for {
		select {
		case c.frames <- frame:
			return
		default:
			select {
			case <-c.frames:
			default:
			}
		}
	}
}

func (c *FrameCamera) Capture(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-ctx.Done():
		return nil, kiosk.ErrCameraUnavailable
	}
}

// Runner drives one kiosk's side of the pairing protocol: rotate the QR
// token, claim a scanned session, count down, capture, upload and check the
// employee in. One session is in flight at a time.
type Runner struct {
	kioskID string

	sessions   kiosk.SessionRepository
	attendance attendance.AttendanceService
	store      storage.ImageStore
	camera     Camera
	hub        *realtime.Hub
	cfg        config.KioskConfig

	mu    sync.Mutex
	token string
	busy  bool
}

func NewRunner(
	kioskID string,
	sessions kiosk.SessionRepository,
	attendanceSvc attendance.AttendanceService,
	store storage.ImageStore,
	camera Camera,
	hub *realtime.Hub,
	cfg config.KioskConfig,
) *Runner {
	r := &Runner{
		kioskID:    kioskID,
		sessions:   sessions,
		attendance: attendanceSvc,
		store:      store,
		camera:     camera,
		hub:        hub,
		cfg:        cfg,
	}
	r.rotateToken()
	return r
}

func (r *Runner) KioskID() string { return r.kioskID }

// VerifyToken checks a scanned token against the kiosk's current one.
func (r *Runner) VerifyToken(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return kiosk.ErrKioskBusy
	}
	if token != r.token {
		return kiosk.ErrTokenMismatch
	}
	return nil
}

// Run blocks until ctx is cancelled, rotating the token and serving claimed
// sessions.
func (r *Runner) Run(ctx context.Context) {
	events, cancel := r.hub.Subscribe("kiosk:" + r.kioskID)
	defer cancel()

	ticker := time.NewTicker(r.cfg.TokenRotationInterval)
	defer ticker.Stop()

	slog.Info("kiosk runner started", "kiosk_id", r.kioskID)

	for {
		select {
		case <-ctx.Done():
			slog.Info("kiosk runner stopped", "kiosk_id", r.kioskID)
			return

		case <-ticker.C:
			// The token never rotates mid-session; the QR is not shown then.
			if !r.isBusy() {
				r.rotateToken()
			}

		case event := <-events:
			resp, ok := event.Data.(kiosk.SessionResponse)
			if !ok {
				continue
			}
			r.serve(ctx, resp.ID)
		}
	}
}

// serve claims and processes one session. The conditional status transition
// makes the claim idempotent: a duplicate wake-up for an already-claimed
// session is a no-op.
func (r *Runner) serve(ctx context.Context, sessionID string) {
	claimed, err := r.sessions.TransitionStatus(ctx, sessionID, kiosk.StatusPending, kiosk.StatusCameraReady)
	if err != nil {
		slog.Error("failed to claim pairing session", "kiosk_id", r.kioskID, "session_id", sessionID, "error", err)
		return
	}
	if !claimed {
		return
	}

	r.setBusy(true)
	defer func() {
		// Hold the post-result screen before going back to the QR.
		r.sleep(ctx, r.cfg.ResetDelay)
		r.setBusy(false)
		r.rotateToken()
	}()

	session, err := r.sessions.GetByID(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load claimed session", "kiosk_id", r.kioskID, "session_id", sessionID, "error", err)
		return
	}

	r.notify(session.ID, "camera_ready", kiosk.StatusCameraReady)
	slog.Info("pairing session claimed",
		"kiosk_id", r.kioskID,
		"session_id", session.ID,
		"employee_id", session.EmployeeID,
	)

	// Countdown so the employee can face the camera.
	r.sleep(ctx, r.cfg.CaptureCountdown)

	frame, err := r.camera.Capture(ctx)
	if err != nil {
		r.fail(ctx, session, kiosk.ErrCameraUnavailable.Error())
		return
	}

	if ok, err := r.sessions.TransitionStatus(ctx, session.ID, kiosk.StatusCameraReady, kiosk.StatusUploading); err != nil || !ok {
		if err != nil {
			slog.Error("failed to transition session to uploading", "session_id", session.ID, "error", err)
		}
		return
	}
	r.notify(session.ID, "uploading", kiosk.StatusUploading)

	photoPath := fmt.Sprintf("attendance/%s/%s.jpg", session.EmployeeID, session.ID)
	photoURL, err := r.store.Upload(ctx, photoPath, bytes.NewReader(frame))
	if err != nil {
		slog.Error("photo upload failed", "session_id", session.ID, "error", err)
		r.fail(ctx, session, kiosk.ErrUploadFailed.Error())
		return
	}

	session.PhotoURL = &photoURL
	deviceID := r.kioskID
	_, err = r.attendance.CheckIn(ctx, attendance.CheckInRequest{
		EmployeeID: session.EmployeeID,
		Latitude:   session.UserLatitude,
		Longitude:  session.UserLongitude,
		DeviceID:   &deviceID,
		PhotoURL:   &photoURL,
	})
	if err != nil {
		r.fail(ctx, session, err.Error())
		return
	}

	if err := r.sessions.Update(ctx, session); err != nil {
		slog.Error("failed to store session photo url", "session_id", session.ID, "error", err)
	}
	if _, err := r.sessions.TransitionStatus(ctx, session.ID, kiosk.StatusUploading, kiosk.StatusCompleted); err != nil {
		slog.Error("failed to complete session", "session_id", session.ID, "error", err)
		return
	}

	r.notify(session.ID, "completed", kiosk.StatusCompleted)
	slog.Info("pairing session completed", "kiosk_id", r.kioskID, "session_id", session.ID)
}

// fail marks the session failed from whatever non-terminal status it holds.
func (r *Runner) fail(ctx context.Context, session kiosk.Session, message string) {
	session.Error = &message
	if err := r.sessions.Update(ctx, session); err != nil {
		slog.Error("failed to store session error", "session_id", session.ID, "error", err)
	}

	for _, from := range []string{kiosk.StatusCameraReady, kiosk.StatusUploading} {
		ok, err := r.sessions.TransitionStatus(ctx, session.ID, from, kiosk.StatusFailed)
		if err != nil {
			slog.Error("failed to fail session", "session_id", session.ID, "error", err)
			return
		}
		if ok {
			break
		}
	}

	r.notify(session.ID, "failed", kiosk.StatusFailed)
	slog.Warn("pairing session failed", "kiosk_id", r.kioskID, "session_id", session.ID, "reason", message)
}

func (r *Runner) rotateToken() {
	r.mu.Lock()
	r.token = uuid.NewString()
	token := r.token
	r.mu.Unlock()

	if r.hub != nil {
		r.hub.Publish("kiosk:"+r.kioskID+":display", realtime.Event{
			Event: "qr_rotated",
			Data:  kiosk.QRPayload{KioskID: r.kioskID, Token: token},
		})
	}
}

// CurrentQR returns the payload the kiosk display renders right now.
func (r *Runner) CurrentQR() kiosk.QRPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return kiosk.QRPayload{KioskID: r.kioskID, Token: r.token}
}

func (r *Runner) isBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

func (r *Runner) setBusy(busy bool) {
	r.mu.Lock()
	r.busy = busy
	r.mu.Unlock()
}

func (r *Runner) notify(sessionID, event, status string) {
	if r.hub == nil {
		return
	}
	r.hub.Publish("session:"+sessionID, realtime.Event{
		Event: event,
		Data:  map[string]string{"session_id": sessionID, "status": status},
	})
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Registry holds the runners attached to this process and answers token
// checks for the phone-facing service.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]*Runner)}
}

func (g *Registry) Register(r *Runner) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runners[r.KioskID()] = r
}

func (g *Registry) Get(kioskID string) (*Runner, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.runners[kioskID]
	return r, ok
}

// VerifyToken implements TokenVerifier.
func (g *Registry) VerifyToken(kioskID string, token string) error {
	runner, ok := g.Get(kioskID)
	if !ok {
		return kiosk.ErrUnknownKiosk
	}
	return runner.VerifyToken(token)
}
