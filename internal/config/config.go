package config // loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field maps to an
// environment variable. Missing required variables abort startup.
type Config struct {
	Env            string // application environment (dev/test/prod)
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	PaymentSecret  string // shared secret for gateway signature verification

	// Scheduling and booking policy knobs.
	Timezone          *time.Location // canonical business timezone for slot math
	ShowtimeBufferMin int            // changeover buffer appended to movie runtime
	BookingCutoffMin  int            // minimum lead time for user cancellation
}

// Load reads configuration from the environment. Required variables
// are enforced by must(); policy knobs fall back to defaults.
func Load() Config {
	tzName := getenvDefault("SHOWTIME_TZ", "Asia/Kolkata")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("invalid SHOWTIME_TZ %q: %v", tzName, err)
	}
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		PaymentSecret:  must("PAYMENT_SECRET"),

		Timezone:          loc,
		ShowtimeBufferMin: intDefault("SHOWTIME_BUFFER_MIN", 30),
		BookingCutoffMin:  intDefault("BOOKING_CUTOFF_MIN", 120),
	}
}

// BufferDuration returns the changeover buffer as a time.Duration.
func (c Config) BufferDuration() time.Duration {
	return time.Duration(c.ShowtimeBufferMin) * time.Minute
}

// CutoffDuration returns the cancellation cutoff as a time.Duration.
func (c Config) CutoffDuration() time.Duration {
	return time.Duration(c.BookingCutoffMin) * time.Minute
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
