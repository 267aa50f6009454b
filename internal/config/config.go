package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Storage      StorageConfig
	Upload       UploadConfig
	Policy       PolicyConfig
	Notification NotificationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	AutoMigrate        bool
}

type StorageConfig struct {
	BasePath string
	BaseURL  string
}

type UploadConfig struct {
	AttachmentMaxBytes int64
	SignatureMaxBytes  int64
	SignatureMaxWidth  int
}

// PolicyConfig holds the attendance and leave rules that vary per deployment.
type PolicyConfig struct {
	AnnualLeaveAllowance      float64
	BreakQualifyingCategories []string
	BreakStaleAfter           time.Duration
	BreakStaleScanInterval    time.Duration
}

type NotificationConfig struct {
	Workers       int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv() (*Config, error) {
	var (
		config = &Config{}
		errs   []error
	)

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432, &errs),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25, &errs)),
		MinConns: int32(getEnvInt("DB_MIN_CONNS", 5, &errs)),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour, &errs),
	}

	config.App = AppConfig{
		Port:               getEnvInt("APP_PORT", 8080, &errs),
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       getEnvInt64("MAX_BODY_BYTES", 10<<20, &errs),
		AutoMigrate:        getEnvBool("AUTO_MIGRATE", false, &errs),
	}

	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	config.Upload = UploadConfig{
		AttachmentMaxBytes: getEnvInt64("ATTACHMENT_MAX_BYTES", 5<<20, &errs),
		SignatureMaxBytes:  getEnvInt64("SIGNATURE_MAX_BYTES", 2<<20, &errs),
		SignatureMaxWidth:  getEnvInt("SIGNATURE_MAX_WIDTH", 600, &errs),
	}

	config.Policy = PolicyConfig{
		AnnualLeaveAllowance:      getEnvFloat("LEAVE_ANNUAL_ALLOWANCE", 30, &errs),
		BreakQualifyingCategories: getEnvSlice("BREAK_QUALIFYING_CATEGORIES", []string{string(breaks.CategoryLunch)}),
		BreakStaleAfter:           getEnvDuration("BREAK_STALE_AFTER", 12*time.Hour, &errs),
		BreakStaleScanInterval:    getEnvDuration("BREAK_STALE_SCAN_INTERVAL", 15*time.Minute, &errs),
	}

	config.Notification = NotificationConfig{
		Workers:       getEnvInt("NOTIFICATION_WORKERS", 2, &errs),
		QueueSize:     getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000, &errs),
		BatchSize:     getEnvInt("NOTIFICATION_BATCH_SIZE", 100, &errs),
		FlushInterval: getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", 5*time.Second, &errs),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	if c.Upload.AttachmentMaxBytes <= 0 || c.Upload.SignatureMaxBytes <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}
	if c.Upload.SignatureMaxWidth <= 0 {
		return fmt.Errorf("SIGNATURE_MAX_WIDTH must be positive")
	}
	if c.Policy.AnnualLeaveAllowance < 0 {
		return fmt.Errorf("LEAVE_ANNUAL_ALLOWANCE must not be negative")
	}
	for _, category := range c.Policy.BreakQualifyingCategories {
		if !breaks.Category(category).Valid() {
			return fmt.Errorf("BREAK_QUALIFYING_CATEGORIES contains unknown break type %q (allowed: %v)", category, breaks.Categories())
		}
	}
	if c.Policy.BreakStaleAfter <= 0 || c.Policy.BreakStaleScanInterval <= 0 {
		return fmt.Errorf("break stale thresholds must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64, errs *[]error) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
