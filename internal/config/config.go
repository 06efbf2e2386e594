package config // package config loads application configuration from environment variables

import (
    "fmt"
    "log"
    "os"
    "strconv"
    "time"

    "github.com/1wflores/amenity-reservations/internal/booking"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // application environment (dev, test, prod)
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
    LogLevel       string // logrus level name
    AMQPURL        string // RabbitMQ connection string, empty disables events
    EventsQueue    string // queue receiving reservation lifecycle events
    AdminEmail     string // bootstrap administrator, created at startup when set
    AdminPassword  string
    Booking        BookingConfig
}

// BookingConfig carries the knobs of the reservation core.
type BookingConfig struct {
    Offset              time.Duration // fixed offset of building-local time east of UTC
    SlotStep            time.Duration // availability grid granularity
    EnforceRules        bool          // apply per-amenity auto-approval rules
    ResetApprovalOnEdit bool          // edited approved bookings go back through the policy
}

// Options converts the config into booking core options.
func (b BookingConfig) Options() booking.Options {
    return booking.Options{
        Offset:       b.Offset,
        SlotStep:     b.SlotStep,
        EnforceRules: b.EnforceRules,
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    bc, err := LoadBookingConfig()
    if err != nil {
        log.Fatalf("booking config: %v", err)
    }
    amqpURL := os.Getenv("RABBITMQ_URL")
    if amqpURL == "" {
        amqpURL = os.Getenv("AMQP_URL")
    }
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        AMQPURL:        amqpURL,
        EventsQueue:    envStr("RESERVATION_EVENTS_QUEUE", "reservation.events"),
        AdminEmail:     os.Getenv("ADMIN_EMAIL"),
        AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
        Booking:        bc,
    }
}

// LoadBookingConfig reads the BOOKING_* variables.  Unlike the required
// server settings these all have defaults, so errors are returned rather
// than fatal.
func LoadBookingConfig() (BookingConfig, error) {
    offset, err := booking.ParseOffset(envStr("BOOKING_UTC_OFFSET", "-05:00"))
    if err != nil {
        return BookingConfig{}, fmt.Errorf("BOOKING_UTC_OFFSET: %w", err)
    }
    step := envDur("BOOKING_SLOT_STEP", booking.DefaultSlotStep)
    if step <= 0 || step > 24*time.Hour {
        return BookingConfig{}, fmt.Errorf("BOOKING_SLOT_STEP: %s out of range", step)
    }
    return BookingConfig{
        Offset:              offset,
        SlotStep:            step,
        EnforceRules:        envBool("BOOKING_ENFORCE_APPROVAL_RULES", false),
        ResetApprovalOnEdit: envBool("BOOKING_RESET_APPROVAL_ON_EDIT", false),
    }, nil
}

// IsProd reports whether the server runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
