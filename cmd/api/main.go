package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/notification"
	appHTTP "github.com/presensia/presensia-backend-go/internal/handler/http"
	"github.com/presensia/presensia-backend-go/internal/pkg/cron"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
	"github.com/presensia/presensia-backend-go/internal/pkg/jwt"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
	"github.com/presensia/presensia-backend-go/internal/pkg/storage"
	"github.com/presensia/presensia-backend-go/internal/repository/postgresql"
	attendanceService "github.com/presensia/presensia-backend-go/internal/service/attendance"
	kioskService "github.com/presensia/presensia-backend-go/internal/service/kiosk"
	statsService "github.com/presensia/presensia-backend-go/internal/service/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	locationRepo := postgresql.NewLocationRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	leaveRepo := postgresql.NewLeaveRequestRepository(db)
	explanationRepo := postgresql.NewExplanationRepository(db)
	kioskSessionRepo := postgresql.NewKioskSessionRepository(db)
	statsRepo := postgresql.NewStatsRepository(db)
	sessionLocker := postgresql.NewSessionLocker(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	imageStore, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage:", err)
	}

	hub := realtime.NewHub()
	dispatcher := notification.NewLogDispatcher()

	statsSvc := statsService.NewStatsService(
		attendanceRepo,
		leaveRepo,
		explanationRepo,
		holidayRepo,
		statsRepo,
		cfg.Attendance,
	)

	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		employeeRepo,
		locationRepo,
		shiftRepo,
		cfg.Attendance,
		statsSvc,
		hub,
		sessionLocker,
	)

	// One runner per kiosk attached to this instance.
	registry := kioskService.NewRegistry()
	cameras := make(map[string]*kioskService.FrameCamera)
	runnerCtx, stopRunners := context.WithCancel(context.Background())
	for _, kioskID := range cfg.Kiosk.AttachedKioskIDs {
		camera := kioskService.NewFrameCamera()
		runner := kioskService.NewRunner(kioskID, kioskSessionRepo, attendanceSvc, imageStore, camera, hub, cfg.Kiosk)
		registry.Register(runner)
		cameras[kioskID] = camera
		go runner.Run(runnerCtx)
	}

	sessionSvc := kioskService.NewSessionService(
		kioskSessionRepo,
		employeeRepo,
		locationRepo,
		registry,
		hub,
		cfg.Kiosk,
	)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("stats-sweep", time.Hour, cron.NewStatsSweepJob(attendanceRepo, statsSvc, dispatcher, cfg.Attendance))
	scheduler.AddJob("kiosk-session-retention", time.Hour, cron.NewKioskRetentionJob(kioskSessionRepo, cfg.Kiosk))
	scheduler.Start()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	kioskHandler := appHTTP.NewKioskHandler(sessionSvc, registry, cameras, hub)
	statsHandler := appHTTP.NewStatsHandler(statsSvc)
	streamHandler := appHTTP.NewStreamHandler(jwtService, hub)

	router := appHTTP.NewRouter(
		cfg.App.Env,
		cfg.Kiosk.DeviceKeyHash,
		jwtService,
		attendanceHandler,
		kioskHandler,
		statsHandler,
		streamHandler,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Server starting on port %d\n", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	stopRunners()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown:", err)
	}
}
