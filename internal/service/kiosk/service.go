package kiosk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/employee"
	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
	"github.com/presensia/presensia-backend-go/internal/domain/location"
	"github.com/presensia/presensia-backend-go/internal/pkg/geo"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
)

// TokenVerifier checks a scanned QR token against a kiosk's current one.
// Implemented by the runner registry; verification happens against in-memory
// kiosk state, not storage, because the token is kiosk-local and rotates.
type TokenVerifier interface {
	// VerifyToken returns ErrUnknownKiosk, ErrTokenMismatch or ErrKioskBusy
	VerifyToken(kioskID string, token string) error
}

type SessionServiceImpl struct {
	kiosk.SessionRepository
	employee.EmployeeRepository
	location.LocationRepository

	verifier TokenVerifier
	hub      *realtime.Hub
	cfg      config.KioskConfig

	now func() time.Time
}

func NewSessionService(
	sessionRepo kiosk.SessionRepository,
	employeeRepo employee.EmployeeRepository,
	locationRepo location.LocationRepository,
	verifier TokenVerifier,
	hub *realtime.Hub,
	cfg config.KioskConfig,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		SessionRepository:  sessionRepo,
		EmployeeRepository: employeeRepo,
		LocationRepository: locationRepo,
		verifier:           verifier,
		hub:                hub,
		cfg:                cfg,
		now:                time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *SessionServiceImpl) WithClock(now func() time.Time) *SessionServiceImpl {
	s.now = now
	return s
}

// CreateSession implements kiosk.SessionService. The phone's GPS is
// validated here, once, because the kiosk has no location sense of its own
// and trusts what the session record carries.
func (s *SessionServiceImpl) CreateSession(ctx context.Context, req kiosk.CreateSessionRequest) (kiosk.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return kiosk.SessionResponse{}, err
	}

	if err := s.verifier.VerifyToken(req.KioskID, req.Token); err != nil {
		return kiosk.SessionResponse{}, err
	}

	lat, lng, err := geo.Normalize(req.Latitude, req.Longitude)
	if err != nil {
		return kiosk.SessionResponse{}, validator.ValidationErrors{{
			Field:   "latitude",
			Message: err.Error(),
		}}
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return kiosk.SessionResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	places, err := s.permittedPlaces(ctx, emp)
	if err != nil {
		return kiosk.SessionResponse{}, err
	}

	place, distance, err := geo.Nearest(lat, lng, places)
	if err != nil {
		return kiosk.SessionResponse{}, fmt.Errorf("failed to resolve nearest location: %w", err)
	}
	if err := geo.Validate(distance, place, s.cfg.DefaultRadiusMeters); err != nil {
		return kiosk.SessionResponse{}, err
	}

	now := s.now()
	session := kiosk.Session{
		ID:           uuid.NewString(),
		KioskID:      req.KioskID,
		Token:        req.Token,
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		CenterID:     place.ID,
		Status:       kiosk.StatusPending,

		UserLatitude:  lat,
		UserLongitude: lng,

		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.SessionRepository.Create(ctx, session)
	if err != nil {
		return kiosk.SessionResponse{}, fmt.Errorf("failed to create pairing session: %w", err)
	}

	// Wake the kiosk runner.
	if s.hub != nil {
		s.hub.Publish("kiosk:"+created.KioskID, realtime.Event{
			Event: "session_created",
			Data:  mapToResponse(created),
		})
	}

	return mapToResponse(created), nil
}

// GetSession implements kiosk.SessionService.
func (s *SessionServiceImpl) GetSession(ctx context.Context, id string) (kiosk.SessionResponse, error) {
	session, err := s.SessionRepository.GetByID(ctx, id)
	if err != nil {
		return kiosk.SessionResponse{}, err
	}
	return mapToResponse(session), nil
}

// WaitForResult implements kiosk.SessionService. It subscribes before the
// first read so a transition landing between the two is not missed.
func (s *SessionServiceImpl) WaitForResult(ctx context.Context, id string) (kiosk.SessionResponse, error) {
	var events chan realtime.Event
	var cancel func()
	if s.hub != nil {
		events, cancel = s.hub.Subscribe("session:" + id)
		defer cancel()
	}

	session, err := s.SessionRepository.GetByID(ctx, id)
	if err != nil {
		return kiosk.SessionResponse{}, err
	}
	if session.Terminal() {
		return mapToResponse(session), nil
	}

	timeout := time.NewTimer(s.cfg.PairingTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return kiosk.SessionResponse{}, ctx.Err()

		case <-timeout.C:
			// The kiosk never finished the handshake in time. The stored
			// record is left alone; the phone sees a local failure.
			resp := mapToResponse(session)
			resp.Status = kiosk.StatusFailed
			msg := kiosk.ErrPairingTimeout.Error()
			resp.Error = &msg
			return resp, nil

		case <-events:
			session, err = s.SessionRepository.GetByID(ctx, id)
			if err != nil {
				return kiosk.SessionResponse{}, err
			}
			if session.Terminal() {
				return mapToResponse(session), nil
			}
		}
	}
}

func (s *SessionServiceImpl) permittedPlaces(ctx context.Context, emp employee.Employee) ([]geo.Place, error) {
	var locs []location.Location
	var err error

	switch {
	case emp.HasLocationWildcard():
		locs, err = s.LocationRepository.List(ctx)
	case len(emp.PermittedLocationIDs) > 0:
		locs, err = s.LocationRepository.GetByIDs(ctx, emp.PermittedLocationIDs)
	default:
		var home location.Location
		home, err = s.LocationRepository.GetByID(ctx, emp.HomeLocationID)
		if err == nil {
			locs = []location.Location{home}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permitted locations: %w", err)
	}

	places := make([]geo.Place, 0, len(locs))
	for _, loc := range locs {
		places = append(places, geo.Place{
			ID:           loc.ID,
			Name:         loc.Name,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			RadiusMeters: loc.RadiusMeters,
		})
	}
	return places, nil
}

func mapToResponse(session kiosk.Session) kiosk.SessionResponse {
	return kiosk.SessionResponse{
		ID:           session.ID,
		KioskID:      session.KioskID,
		EmployeeID:   session.EmployeeID,
		EmployeeName: session.EmployeeName,
		CenterID:     session.CenterID,
		Status:       session.Status,
		Error:        session.Error,
		PhotoURL:     session.PhotoURL,
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}
