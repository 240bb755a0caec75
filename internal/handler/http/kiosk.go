package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
	"github.com/presensia/presensia-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presensia-backend-go/internal/handler/http/response"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
	kioskService "github.com/presensia/presensia-backend-go/internal/service/kiosk"
)

const maxFrameBytes = 10 << 20

type KioskHandler interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	WaitResult(w http.ResponseWriter, r *http.Request)
	PushFrame(w http.ResponseWriter, r *http.Request)
	CurrentQR(w http.ResponseWriter, r *http.Request)
	DisplayStream(w http.ResponseWriter, r *http.Request)
}

type kioskHandlerImpl struct {
	sessionService kiosk.SessionService
	registry       *kioskService.Registry
	cameras        map[string]*kioskService.FrameCamera
	hub            *realtime.Hub
}

func NewKioskHandler(
	sessionService kiosk.SessionService,
	registry *kioskService.Registry,
	cameras map[string]*kioskService.FrameCamera,
	hub *realtime.Hub,
) KioskHandler {
	return &kioskHandlerImpl{
		sessionService: sessionService,
		registry:       registry,
		cameras:        cameras,
		hub:            hub,
	}
}

// CreateSession implements KioskHandler. Called by the phone after scanning
// the kiosk QR.
func (h *kioskHandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req kiosk.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.EmployeeID = middleware.EmployeeID(r)

	result, err := h.sessionService.CreateSession(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Pairing session created", result)
}

// GetSession implements KioskHandler.
func (h *kioskHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// WaitResult implements KioskHandler. Long-polls until the session is
// terminal or the pairing timeout elapses.
func (h *kioskHandlerImpl) WaitResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.WaitForResult(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// PushFrame implements KioskHandler. The kiosk hardware posts raw JPEG
// frames here; the runner consumes the freshest one at capture time.
func (h *kioskHandlerImpl) PushFrame(w http.ResponseWriter, r *http.Request) {
	kioskID := chi.URLParam(r, "kioskID")

	camera, ok := h.cameras[kioskID]
	if !ok {
		response.HandleError(w, kiosk.ErrUnknownKiosk)
		return
	}

	frame, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes))
	if err != nil {
		response.BadRequest(w, "Failed to read frame", nil)
		return
	}
	if len(frame) == 0 {
		response.BadRequest(w, "Empty frame", nil)
		return
	}

	camera.Push(frame)
	response.SuccessWithMessage(w, "Frame accepted", nil)
}

// CurrentQR implements KioskHandler. The kiosk display polls or bootstraps
// from this before the SSE stream attaches.
func (h *kioskHandlerImpl) CurrentQR(w http.ResponseWriter, r *http.Request) {
	runner, ok := h.registry.Get(chi.URLParam(r, "kioskID"))
	if !ok {
		response.HandleError(w, kiosk.ErrUnknownKiosk)
		return
	}

	response.Success(w, runner.CurrentQR())
}

// DisplayStream implements KioskHandler. Streams QR rotations and session
// progress to the kiosk display over SSE.
func (h *kioskHandlerImpl) DisplayStream(w http.ResponseWriter, r *http.Request) {
	kioskID := chi.URLParam(r, "kioskID")
	if _, ok := h.registry.Get(kioskID); !ok {
		response.HandleError(w, kiosk.ErrUnknownKiosk)
		return
	}

	streamEvents(w, r, h.hub, "kiosk:"+kioskID+":display")
}

// streamEvents pipes a hub topic to the client as server-sent events.
func streamEvents(w http.ResponseWriter, r *http.Request, hub *realtime.Hub, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := hub.Subscribe(topic)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
