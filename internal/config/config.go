package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Storage    StorageConfig
	Attendance AttendanceConfig
	Kiosk      KioskConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type StorageConfig struct {
	BasePath string
	BaseURL  string
}

// AttendanceConfig holds the system tunables the session manager and the
// stats aggregator work from.
type AttendanceConfig struct {
	LateToleranceMinutes int
	FullDayHours         float64
	HalfDayHours         float64
	LunchStart           string // HH:MM
	LunchEnd             string // HH:MM
	WeekOffDays          []time.Weekday
	DefaultRadiusMeters  int
	MonthLockDay         int // day of month stats are locked and announced
}

// KioskConfig holds kiosk pairing protocol tunables.
type KioskConfig struct {
	// IDs of kiosks driven in-process by this instance
	AttachedKioskIDs []string

	// Bcrypt hash of the shared device key kiosk hardware presents on its
	// endpoints. Empty disables the check (local development).
	DeviceKeyHash string

	// Fallback geofence radius for kiosk check-ins when a location has no
	// radius of its own; mirrors the attendance default.
	DefaultRadiusMeters int

	TokenRotationInterval time.Duration
	PairingTimeout        time.Duration
	CaptureCountdown      time.Duration
	ResetDelay            time.Duration
	SessionRetention      time.Duration
}

func Load() (*Config, error) {
	// Missing .env is fine in deployments that configure via the process
	// environment.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "presensia"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	attendance, err := loadAttendanceConfig()
	if err != nil {
		return nil, err
	}
	config.Attendance = attendance

	kiosk, err := loadKioskConfig()
	if err != nil {
		return nil, err
	}
	config.Kiosk = kiosk

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAttendanceConfig() (AttendanceConfig, error) {
	lateTolerance, err := strconv.Atoi(getEnv("LATE_TOLERANCE_MINUTES", "10"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid LATE_TOLERANCE_MINUTES: %w", err)
	}

	fullDay, err := strconv.ParseFloat(getEnv("FULL_DAY_HOURS", "7"), 64)
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid FULL_DAY_HOURS: %w", err)
	}

	halfDay, err := strconv.ParseFloat(getEnv("HALF_DAY_HOURS", "4"), 64)
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid HALF_DAY_HOURS: %w", err)
	}

	defaultRadius, err := strconv.Atoi(getEnv("DEFAULT_GEOFENCE_RADIUS_METERS", "100"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid DEFAULT_GEOFENCE_RADIUS_METERS: %w", err)
	}

	monthLockDay, err := strconv.Atoi(getEnv("MONTH_LOCK_DAY", "5"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid MONTH_LOCK_DAY: %w", err)
	}

	weekOff, err := parseWeekdays(getEnv("WEEK_OFF_DAYS", "Saturday,Sunday"))
	if err != nil {
		return AttendanceConfig{}, err
	}

	return AttendanceConfig{
		LateToleranceMinutes: lateTolerance,
		FullDayHours:         fullDay,
		HalfDayHours:         halfDay,
		LunchStart:           getEnv("LUNCH_WINDOW_START", "12:00"),
		LunchEnd:             getEnv("LUNCH_WINDOW_END", "13:30"),
		WeekOffDays:          weekOff,
		DefaultRadiusMeters:  defaultRadius,
		MonthLockDay:         monthLockDay,
	}, nil
}

func loadKioskConfig() (KioskConfig, error) {
	rotation, err := time.ParseDuration(getEnv("KIOSK_TOKEN_ROTATION_INTERVAL", "60s"))
	if err != nil {
		return KioskConfig{}, fmt.Errorf("invalid KIOSK_TOKEN_ROTATION_INTERVAL: %w", err)
	}

	pairingTimeout, err := time.ParseDuration(getEnv("KIOSK_PAIRING_TIMEOUT", "45s"))
	if err != nil {
		return KioskConfig{}, fmt.Errorf("invalid KIOSK_PAIRING_TIMEOUT: %w", err)
	}

	countdown, err := time.ParseDuration(getEnv("KIOSK_CAPTURE_COUNTDOWN", "3s"))
	if err != nil {
		return KioskConfig{}, fmt.Errorf("invalid KIOSK_CAPTURE_COUNTDOWN: %w", err)
	}

	resetDelay, err := time.ParseDuration(getEnv("KIOSK_RESET_DELAY", "4s"))
	if err != nil {
		return KioskConfig{}, fmt.Errorf("invalid KIOSK_RESET_DELAY: %w", err)
	}

	retention, err := time.ParseDuration(getEnv("KIOSK_SESSION_RETENTION", "24h"))
	if err != nil {
		return KioskConfig{}, fmt.Errorf("invalid KIOSK_SESSION_RETENTION: %w", err)
	}

	defaultRadius, err := strconv.Atoi(getEnv("DEFAULT_GEOFENCE_RADIUS_METERS", "100"))
	if err != nil {
		return KioskConfig{}, fmt.Errorf("invalid DEFAULT_GEOFENCE_RADIUS_METERS: %w", err)
	}

	return KioskConfig{
		AttachedKioskIDs:      getEnvSlice("KIOSK_ATTACHED_IDS"),
		DeviceKeyHash:         getEnv("KIOSK_DEVICE_KEY_HASH", ""),
		DefaultRadiusMeters:   defaultRadius,
		TokenRotationInterval: rotation,
		PairingTimeout:        pairingTimeout,
		CaptureCountdown:      countdown,
		ResetDelay:            resetDelay,
		SessionRetention:      retention,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.HalfDayHours > c.Attendance.FullDayHours {
		return fmt.Errorf("HALF_DAY_HOURS must not exceed FULL_DAY_HOURS")
	}
	if c.Attendance.MonthLockDay < 1 || c.Attendance.MonthLockDay > 28 {
		return fmt.Errorf("MONTH_LOCK_DAY must be between 1 and 28")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func parseWeekdays(value string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		day, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("invalid WEEK_OFF_DAYS entry: %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
