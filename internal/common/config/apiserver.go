package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amoylab/choirhub/pkg/trace"
)

type (
	APIServerConfig struct {
		Server     ServerConfig     `yaml:"server"`
		Database   DatabaseConfig   `yaml:"database"`
		Logger     LoggerConfig     `yaml:"logger"`
		JWT        JWTConfig        `yaml:"jwt"`
		Upload     UploadConfig     `yaml:"upload"`
		SuperAdmin SuperAdminConfig `yaml:"super_admin"`
		Cache      CacheConfig      `yaml:"cache"`
		Metrics    MetricsConfig    `yaml:"metrics"`
		Tracing    trace.Config     `yaml:"tracing"`
		I18n       I18nConfig       `yaml:"i18n"`
	}

	ServerConfig struct {
		Host            string          `yaml:"host"`
		Port            int             `yaml:"port"`
		CORSOrigins     string          `yaml:"cors_origins"` // comma separated
		ReadTimeout     time.Duration   `yaml:"read_timeout"`
		WriteTimeout    time.Duration   `yaml:"write_timeout"`
		ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
		RateLimit       RateLimitConfig `yaml:"rate_limit"`
	}

	RateLimitConfig struct {
		Enabled      bool          `yaml:"enabled"`
		Requests     int           `yaml:"requests"`      // per client ip and window
		AuthRequests int           `yaml:"auth_requests"` // login and register, per client ip and window
		Window       time.Duration `yaml:"window"`
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name, or file path for sqlite
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	UploadConfig struct {
		Dir         string `yaml:"dir"`
		MaxFileSize int64  `yaml:"max_file_size"` // bytes per file
		MaxFiles    int    `yaml:"max_files"`
		// ReconcileInterval enables periodic orphan folder removal when positive
		ReconcileInterval time.Duration `yaml:"reconcile_interval"`
		ReconcileMinAge   time.Duration `yaml:"reconcile_min_age"`
	}

	CacheConfig struct {
		Type  string           `yaml:"type"` // memory or redis
		TTL   time.Duration    `yaml:"ttl"`
		Redis RedisCacheConfig `yaml:"redis"`
	}

	RedisCacheConfig struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}

	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Path      string    `yaml:"path"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}

	// I18nConfig represents the internationalization configuration
	I18nConfig struct {
		DefaultLang string `yaml:"default_lang"`
	}
)

const (
	defaultMaxFileSize int64 = 50 << 20
	defaultMaxFiles          = 10
)

func (c *APIServerConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	c.Server.ReadTimeout = durationOr(c.Server.ReadTimeout, 30*time.Second)
	c.Server.WriteTimeout = durationOr(c.Server.WriteTimeout, 5*time.Minute)
	c.Server.ShutdownTimeout = durationOr(c.Server.ShutdownTimeout, 10*time.Second)
	if c.Server.RateLimit.Requests <= 0 {
		c.Server.RateLimit.Requests = 100
	}
	if c.Server.RateLimit.AuthRequests <= 0 {
		c.Server.RateLimit.AuthRequests = 20
	}
	c.Server.RateLimit.Window = durationOr(c.Server.RateLimit.Window, 15*time.Minute)

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.DBName == "" {
		c.Database.DBName = "./data/choirhub.db"
	}

	c.JWT.Duration = durationOr(c.JWT.Duration, 24*time.Hour)

	if c.Upload.Dir == "" {
		c.Upload.Dir = "./uploads"
	}
	if c.Upload.MaxFileSize <= 0 {
		c.Upload.MaxFileSize = defaultMaxFileSize
	}
	if c.Upload.MaxFiles <= 0 {
		c.Upload.MaxFiles = defaultMaxFiles
	}
	c.Upload.ReconcileMinAge = durationOr(c.Upload.ReconcileMinAge, time.Hour)

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	c.Cache.TTL = durationOr(c.Cache.TTL, time.Minute)
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "choirhub:"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "choirhub"
	}

	if c.I18n.DefaultLang == "" {
		c.I18n.DefaultLang = "es"
	}
}

// Addr returns the listen address of the http server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AllowedOrigins returns the configured CORS origins
func (c *ServerConfig) AllowedOrigins() []string {
	return SplitList(c.CORSOrigins)
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return c.getPostgresDSN()
	case "mysql":
		return c.getMySQLDSN()
	case "sqlite":
		if c.DBName == ":memory:" {
			return c.DBName
		}
		// Ensure the directory for the SQLite database exists.
		// If the directory cannot be created, it's a fatal error.
		if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
			panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

// getPostgresDSN returns PostgreSQL connection string
func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getMySQLDSN returns MySQL connection string
func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
