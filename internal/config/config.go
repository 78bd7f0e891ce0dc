package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/your-org/moments/internal/models"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	MinIO      MinIOConfig      `yaml:"minio"`
	AWS        AWSConfig        `yaml:"aws"`
	LocationIQ LocationIQConfig `yaml:"locationiq"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Profile    models.Profile   `yaml:"profile"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	// MaxImageMegapixels bounds decoded upload size independently of bytes.
	MaxImageMegapixels int `yaml:"max_image_megapixels"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
	Path     string `yaml:"path"` // sqlite file
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// Enabled reports whether pipeline tasks go through JetStream. Without a
// URL the API runs the pipeline in-process.
func (n NATSConfig) Enabled() bool {
	return strings.TrimSpace(n.URL) != ""
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AWSConfig holds credentials for the face/label/text vision provider.
type AWSConfig struct {
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Timeout         time.Duration `yaml:"timeout"`
}

func (a AWSConfig) Configured() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != "" && a.Region != ""
}

type LocationIQConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type OpenAIConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	ClassifyModel  string        `yaml:"classify_model"`
	NarrativeModel string        `yaml:"narrative_model"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxImageDim    int           `yaml:"max_image_dim"`
}

type PipelineConfig struct {
	WorkerCount int           `yaml:"worker_count"`
	QueueSize   int           `yaml:"queue_size"`
	StaleAfter  time.Duration `yaml:"stale_after"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
// A missing file is not an error: defaults plus environment are enough to run.
func Load(path string) (*Config, error) {
	LoadDotEnv()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// LoadDotEnv loads .env.local and .env from the working directory. Variables
// that are already set are left alone.
func LoadDotEnv() {
	for _, p := range []string{".env.local", ".env"} {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			slog.Warn("load dotenv", "path", p, "error", err)
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 25
	}
	if cfg.Server.MaxImageMegapixels <= 0 {
		cfg.Server.MaxImageMegapixels = 50
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Port <= 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "moments.db"
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "moments"
	}
	if cfg.AWS.Timeout <= 0 {
		cfg.AWS.Timeout = 20 * time.Second
	}
	if cfg.LocationIQ.BaseURL == "" {
		cfg.LocationIQ.BaseURL = "https://us1.locationiq.com"
	}
	if cfg.LocationIQ.Timeout <= 0 {
		cfg.LocationIQ.Timeout = 10 * time.Second
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.ClassifyModel == "" {
		cfg.OpenAI.ClassifyModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.NarrativeModel == "" {
		cfg.OpenAI.NarrativeModel = "gpt-4o"
	}
	if cfg.OpenAI.Timeout <= 0 {
		cfg.OpenAI.Timeout = 30 * time.Second
	}
	if cfg.OpenAI.MaxImageDim <= 0 {
		cfg.OpenAI.MaxImageDim = 1024
	}
	if cfg.Pipeline.WorkerCount <= 0 {
		cfg.Pipeline.WorkerCount = 4
	}
	if cfg.Pipeline.QueueSize <= 0 {
		cfg.Pipeline.QueueSize = 64
	}
	if cfg.Pipeline.StaleAfter <= 0 {
		cfg.Pipeline.StaleAfter = 10 * time.Minute
	}
	if cfg.Profile.Name == "" {
		cfg.Profile.Name = "Alex"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOMENTS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MOMENTS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("MOMENTS_MAX_IMAGE_MEGAPIXELS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxImageMegapixels = n
		}
	}
	if v := os.Getenv("MOMENTS_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.StaleAfter = d
		}
	}
	if v := os.Getenv("MOMENTS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("MOMENTS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MOMENTS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MOMENTS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MOMENTS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MOMENTS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MOMENTS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MOMENTS_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("MOMENTS_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("MOMENTS_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("MOMENTS_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("MOMENTS_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.AWS.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.AWS.SecretAccessKey = v
	}
	if v := os.Getenv("LOCATIONIQ_API_KEY"); v != "" {
		cfg.LocationIQ.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("MOMENTS_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.WorkerCount = n
		}
	}
	if v := os.Getenv("MOMENTS_PROFILE_NAME"); v != "" {
		cfg.Profile.Name = v
	}
	if v := os.Getenv("MOMENTS_PROFILE_HOME_CITY"); v != "" {
		cfg.Profile.HomeCity = v
	}
	if v := os.Getenv("MOMENTS_PROFILE_TIMEZONE"); v != "" {
		cfg.Profile.Timezone = v
	}
	if v := os.Getenv("MOMENTS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
