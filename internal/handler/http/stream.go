package http

import (
	"net/http"

	"github.com/presensia/presensia-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presensia-backend-go/internal/handler/http/response"
	"github.com/presensia/presensia-backend-go/internal/pkg/jwt"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
)

type StreamHandler interface {
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	jwtService jwt.Service
	hub        *realtime.Hub
}

func NewStreamHandler(jwtService jwt.Service, hub *realtime.Hub) StreamHandler {
	return &streamHandlerImpl{
		jwtService: jwtService,
		hub:        hub,
	}
}

type streamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GetStreamToken implements StreamHandler. EventSource cannot send an
// Authorization header, so the client exchanges its access token for a
// short-lived query-parameter token first.
func (h *streamHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.EmployeeID(r)
	if employeeID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(employeeID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, streamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream implements StreamHandler. Streams the caller's session events
// (opened, closed, break transitions) over SSE.
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	employeeID, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	streamEvents(w, r, h.hub, "employee:"+employeeID)
}
