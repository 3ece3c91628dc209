// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database     DatabaseConfig     `json:"database"`
	Server       ServerConfig       `json:"server"`
	Security     SecurityConfig     `json:"security"`
	JWT          JWTConfig          `json:"jwt"`
	Logging      LoggingConfig      `json:"logging"`
	Metrics      MetricsConfig      `json:"metrics"`
	Cache        CacheConfig        `json:"cache"`
	QR           QRConfig           `json:"qr"`
	Scan         ScanConfig         `json:"scan"`
	Analytics    AnalyticsConfig    `json:"analytics"`
	Collaborator CollaboratorConfig `json:"collaborator"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	TrustedProxies  []string      `json:"trusted_proxies"`
	ProxyHeader     string        `json:"proxy_header"`
}

type SecurityConfig struct {
	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting. The public resolution endpoint protects the backing
	// store with both a per-IP and a global ceiling.
	ResolveRateLimit       int           `json:"resolve_rate_limit"`        // per IP per window
	ResolveGlobalRateLimit int           `json:"resolve_global_rate_limit"` // across all IPs per window
	APIRateLimit           int           `json:"api_rate_limit"`            // brand API, per IP per window
	RateLimitWindow        time.Duration `json:"rate_limit_window"`

	// IPHashKey keys the blake2b hash applied to client addresses before
	// storage. Empty disables hashing entirely (privacy mode).
	IPHashKey string `json:"ip_hash_key"`
}

type JWTConfig struct {
	SecretKey string `json:"secret_key"`
	Issuer    string `json:"issuer"`
	Audience  string `json:"audience"`
}

type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Output string `json:"output"` // stdout, file, both

	// Access log rotation (lumberjack)
	AccessLogPath string `json:"access_log_path"`
	MaxSize       int    `json:"max_size"` // MB
	MaxBackups    int    `json:"max_backups"`
	MaxAge        int    `json:"max_age"` // days
	Compress      bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Provider        string        `json:"provider"` // redis, memory
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	RedisPrefix     string        `json:"redis_prefix"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type QRConfig struct {
	// PublicBaseURL is the origin printed inside QR images, e.g.
	// https://v.veritag.io; the short URL is PublicBaseURL/v/<code>.
	PublicBaseURL string `json:"public_base_url"`
	// CodeBytes is the number of random bytes per token before base64url
	// encoding (8 bytes -> 11 characters).
	CodeBytes int `json:"code_bytes"`
	// MaxGenerationAttempts bounds duplicate-collision retries per issuance.
	MaxGenerationAttempts int `json:"max_generation_attempts"`
	// ImageSize is the rendered PNG edge length in pixels.
	ImageSize int `json:"image_size"`
}

type ScanConfig struct {
	// QueueSize bounds the in-memory scan buffer; a full buffer drops events
	// rather than blocking the resolution response.
	QueueSize int `json:"queue_size"`
	Workers   int `json:"workers"`
	// DrainTimeout bounds how long shutdown waits for queued scans to flush.
	DrainTimeout time.Duration `json:"drain_timeout"`
}

type AnalyticsConfig struct {
	// Timezone is the IANA zone used for calendar-day bucketing. Scans are
	// stored in UTC and shifted into this zone at aggregation time.
	Timezone        string        `json:"timezone"`
	CacheTTL        time.Duration `json:"cache_ttl"`
	RecentScanLimit int           `json:"recent_scan_limit"`
}

type CollaboratorConfig struct {
	ProductServiceURL string        `json:"product_service_url"`
	ProductAPIKey     string        `json:"product_api_key"`
	Timeout           time.Duration `json:"timeout"`

	GeoIPEnabled bool          `json:"geoip_enabled"`
	GeoIPURL     string        `json:"geoip_url"`
	GeoIPTimeout time.Duration `json:"geoip_timeout"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "veritag"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024),
			TrustedProxies:  getEnvStringSlice("SERVER_TRUSTED_PROXIES", nil),
			ProxyHeader:     getEnvString("SERVER_PROXY_HEADER", ""),
		},
		Security: SecurityConfig{
			AllowedOrigins:         getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"https://app.veritag.io"}),
			AllowCredentials:       getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:             getEnvInt("CORS_MAX_AGE", 86400),
			ResolveRateLimit:       getEnvInt("RESOLVE_RATE_LIMIT", 60),
			ResolveGlobalRateLimit: getEnvInt("RESOLVE_GLOBAL_RATE_LIMIT", 5000),
			APIRateLimit:           getEnvInt("API_RATE_LIMIT", 300),
			RateLimitWindow:        getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			IPHashKey:              getEnvString("IP_HASH_KEY", ""),
		},
		JWT: JWTConfig{
			SecretKey: getEnvString("JWT_SECRET_KEY", ""),
			Issuer:    getEnvString("JWT_ISSUER", "veritag-accounts"),
			Audience:  getEnvString("JWT_AUDIENCE", "veritag-api"),
		},
		Logging: LoggingConfig{
			Level:         getEnvString("LOG_LEVEL", "info"),
			Output:        getEnvString("LOG_OUTPUT", "stdout"),
			AccessLogPath: getEnvString("ACCESS_LOG_PATH", "/var/log/veritag/access.log"),
			MaxSize:       getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:    getEnvInt("LOG_MAX_BACKUPS", 7),
			MaxAge:        getEnvInt("LOG_MAX_AGE", 30),
			Compress:      getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:         getEnvBool("CACHE_ENABLED", true),
			Provider:        getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:        getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:         getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:     getEnvString("CACHE_REDIS_PREFIX", "veritag"),
			DefaultTTL:      getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
			CleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 30*time.Second),
		},
		QR: QRConfig{
			PublicBaseURL:         getEnvString("QR_PUBLIC_BASE_URL", "https://v.veritag.io"),
			CodeBytes:             getEnvInt("QR_CODE_BYTES", 9),
			MaxGenerationAttempts: getEnvInt("QR_MAX_GENERATION_ATTEMPTS", 5),
			ImageSize:             getEnvInt("QR_IMAGE_SIZE", 512),
		},
		Scan: ScanConfig{
			QueueSize:    getEnvInt("SCAN_QUEUE_SIZE", 4096),
			Workers:      getEnvInt("SCAN_WORKERS", 4),
			DrainTimeout: getEnvDuration("SCAN_DRAIN_TIMEOUT", 10*time.Second),
		},
		Analytics: AnalyticsConfig{
			Timezone:        getEnvString("ANALYTICS_TIMEZONE", "UTC"),
			CacheTTL:        getEnvDuration("ANALYTICS_CACHE_TTL", 2*time.Minute),
			RecentScanLimit: getEnvInt("ANALYTICS_RECENT_SCAN_LIMIT", 10),
		},
		Collaborator: CollaboratorConfig{
			ProductServiceURL: getEnvString("PRODUCT_SERVICE_URL", "http://localhost:8081"),
			ProductAPIKey:     getEnvString("PRODUCT_SERVICE_API_KEY", ""),
			Timeout:           getEnvDuration("PRODUCT_SERVICE_TIMEOUT", 3*time.Second),
			GeoIPEnabled:      getEnvBool("GEOIP_ENABLED", false),
			GeoIPURL:          getEnvString("GEOIP_URL", ""),
			GeoIPTimeout:      getEnvDuration("GEOIP_TIMEOUT", 2*time.Second),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}

	// Validate JWT configuration
	if cfg.JWT.SecretKey == "" {
		errors = append(errors, "JWT_SECRET_KEY is required")
	}
	if len(cfg.JWT.SecretKey) > 0 && len(cfg.JWT.SecretKey) < 32 {
		errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}

	// Validate QR configuration
	if cfg.QR.PublicBaseURL == "" {
		errors = append(errors, "QR_PUBLIC_BASE_URL is required")
	}
	if cfg.QR.CodeBytes < 8 || cfg.QR.CodeBytes > 16 {
		errors = append(errors, "QR_CODE_BYTES must be between 8 and 16")
	}
	if cfg.QR.MaxGenerationAttempts <= 0 {
		errors = append(errors, "QR_MAX_GENERATION_ATTEMPTS must be positive")
	}

	// Validate scan queue configuration
	if cfg.Scan.QueueSize <= 0 {
		errors = append(errors, "SCAN_QUEUE_SIZE must be positive")
	}
	if cfg.Scan.Workers <= 0 {
		errors = append(errors, "SCAN_WORKERS must be positive")
	}

	// Validate analytics configuration
	if _, err := time.LoadLocation(cfg.Analytics.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("ANALYTICS_TIMEZONE is not a valid IANA zone: %v", err))
	}
	if cfg.Analytics.RecentScanLimit <= 0 {
		errors = append(errors, "ANALYTICS_RECENT_SCAN_LIMIT must be positive")
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled {
		if cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
			errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
		}
	}

	// Validate collaborator configuration
	if cfg.Collaborator.ProductServiceURL == "" {
		errors = append(errors, "PRODUCT_SERVICE_URL is required")
	}
	if cfg.Collaborator.GeoIPEnabled && cfg.Collaborator.GeoIPURL == "" {
		errors = append(errors, "GEOIP_URL is required when GeoIP is enabled")
	}

	// Validate logging configuration
	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		valid := false
		for _, level := range validLevels {
			if cfg.Logging.Level == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
