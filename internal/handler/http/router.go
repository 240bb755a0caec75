package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/presensia/presensia-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presensia-backend-go/internal/pkg/jwt"
)

func NewRouter(
	env string,
	deviceKeyHash string,
	jwtService jwt.Service,
	attendanceHandler AttendanceHandler,
	kioskHandler KioskHandler,
	statsHandler StatsHandler,
	streamHandler StreamHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "presensia"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Kiosk hardware endpoints: the kiosk presents a shared device
		// key instead of an employee JWT.
		r.Route("/kiosks/{kioskID}", func(r chi.Router) {
			r.Use(middleware.DeviceKeyRequired(deviceKeyHash))
			r.Get("/qr", kioskHandler.CurrentQR)
			r.Get("/display", kioskHandler.DisplayStream)
			r.Post("/frame", kioskHandler.PushFrame)
		})

		// SSE stream authenticates with its own short-lived token.
		r.Get("/stream", streamHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", attendanceHandler.CheckIn)
				r.Post("/check-out", attendanceHandler.CheckOut)
				r.Post("/break/start", attendanceHandler.StartBreak)
				r.Post("/break/end", attendanceHandler.EndBreak)
				r.Get("/status", attendanceHandler.Status)
				r.Get("/history", attendanceHandler.History)
			})

			r.Route("/kiosk-sessions", func(r chi.Router) {
				r.Post("/", kioskHandler.CreateSession)
				r.Get("/{sessionID}", kioskHandler.GetSession)
				r.Get("/{sessionID}/result", kioskHandler.WaitResult)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/{year}/{month}", statsHandler.GetMonthly)
				r.Post("/{year}/{month}/recompute", statsHandler.Recompute)
			})

			r.Get("/stream/token", streamHandler.GetStreamToken)
		})
	})

	return r
}
