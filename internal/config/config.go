package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration shared by the bot-backed
// and the fallback services.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"midjourney-api"`
	Version         string        `env:"SERVICE_VERSION" envDefault:"2.0.0"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	HTTPPort        int           `env:"PORT" envDefault:"3147"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	EnableMetrics   bool          `env:"METRICS_ENABLED" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// PublicBaseURL prefixes every locally served image URL returned to clients.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3147"`

	// Local directories
	DataDir    string `env:"DATA_DIR" envDefault:".data"`
	ImagesDir  string `env:"IMAGES_DIR"`
	UploadsDir string `env:"UPLOADS_DIR"`

	// Discord / Midjourney
	ServerID                string        `env:"SERVER_ID"`
	ChannelID               string        `env:"CHANNEL_ID"`
	SalaiToken              string        `env:"SALAI_TOKEN"`
	MJApplicationID         string        `env:"MJ_APPLICATION_ID" envDefault:"936929561302675456"`
	MJImagineCommandID      string        `env:"MJ_IMAGINE_COMMAND_ID" envDefault:"938956540159881230"`
	MJImagineCommandVersion string        `env:"MJ_IMAGINE_COMMAND_VERSION" envDefault:"1237876415471554623"`
	MJImagineTimeout        time.Duration `env:"MJ_IMAGINE_TIMEOUT" envDefault:"120s"`
	MJUpscaleTimeout        time.Duration `env:"MJ_UPSCALE_TIMEOUT" envDefault:"120s"`
	MJReferenceTimeout      time.Duration `env:"MJ_REFERENCE_TIMEOUT" envDefault:"180s"`
	MJConnectTimeout        time.Duration `env:"MJ_CONNECT_TIMEOUT" envDefault:"30s"`
	MJWarmup                bool          `env:"MJ_WARMUP" envDefault:"true"`

	// Public image host used to expose reference uploads
	ImgbbAPIKey   string        `env:"IMGBB_API_KEY"`
	ImgbbEndpoint string        `env:"IMGBB_ENDPOINT" envDefault:"https://api.imgbb.com/1/upload"`
	ImgbbTimeout  time.Duration `env:"IMGBB_TIMEOUT" envDefault:"30s"`

	// Uploads and downloads
	UploadMaxBytes   int64         `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	UploadMaxFiles   int           `env:"UPLOAD_MAX_FILES" envDefault:"4"`
	DownloadTimeout  time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"60s"`
	DownloadMaxBytes int64         `env:"DOWNLOAD_MAX_BYTES" envDefault:"52428800"`

	// Upload janitor
	UploadRetention time.Duration `env:"UPLOAD_RETENTION" envDefault:"1h"`
	JanitorSchedule string        `env:"JANITOR_SCHEDULE" envDefault:"*/10 * * * *"`

	// Storage Backend Selection
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"local"` // Options: "local" or "s3"

	// S3 Storage Configuration
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Prefix       string `env:"S3_PREFIX" envDefault:"images/"`
	S3AccessKeyID  string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`

	// Fallback providers, "name|url-template" entries separated by ';'
	FallbackProviders       []string      `env:"FALLBACK_PROVIDERS" envSeparator:";" envDefault:"pollinations-flux|https://image.pollinations.ai/prompt/{prompt}?width={width}&height={height}&seed={seed}&model=flux&nologo=true;pollinations-turbo|https://image.pollinations.ai/prompt/{prompt}?width={width}&height={height}&seed={seed}&model=turbo&nologo=true;pollinations-legacy|https://pollinations.ai/p/{prompt}?width={width}&height={height}&seed={seed}"`
	FallbackTimeout         time.Duration `env:"FALLBACK_TIMEOUT" envDefault:"15s"`
	FallbackDebugSnapshots  bool          `env:"FALLBACK_DEBUG_SNAPSHOTS" envDefault:"false"`
	FallbackDefaultBaseSize int           `env:"FALLBACK_BASE_SIZE" envDefault:"1024"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.ServerID = strings.TrimSpace(c.ServerID)
	c.ChannelID = strings.TrimSpace(c.ChannelID)
	c.SalaiToken = strings.TrimSpace(c.SalaiToken)
	c.ImgbbAPIKey = strings.TrimSpace(c.ImgbbAPIKey)
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)

	if strings.TrimSpace(c.ImagesDir) == "" {
		c.ImagesDir = filepath.Join(c.DataDir, "images")
	}
	if strings.TrimSpace(c.UploadsDir) == "" {
		c.UploadsDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.UploadMaxBytes <= 0 {
		c.UploadMaxBytes = 10 * 1024 * 1024
	}
	if c.UploadMaxFiles <= 0 {
		c.UploadMaxFiles = 4
	}
	if c.FallbackDefaultBaseSize <= 0 {
		c.FallbackDefaultBaseSize = 1024
	}

	if c.AuthEnabled {
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	if c.IsS3Storage() && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}

// MidjourneyConfigured reports whether the Discord credentials are present.
func (c *Config) MidjourneyConfigured() bool {
	return c.ServerID != "" && c.ChannelID != "" && c.SalaiToken != ""
}

// PublicURL joins a server-relative path such as /images/x.png onto PublicBaseURL.
func (c *Config) PublicURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.PublicBaseURL + path
}
