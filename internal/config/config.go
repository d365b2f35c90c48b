package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	BackendURL      string        `mapstructure:"BACKEND_URL"`
	BackendSelector string        `mapstructure:"BACKEND_SELECTOR"`
	BackendRPS      float64       `mapstructure:"BACKEND_RPS"`
	BackendTimeout  time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	Cookies         string        `mapstructure:"COOKIES"`
	StatusUUID      string        `mapstructure:"STATUS_UUID"`
	ModelType       string        `mapstructure:"MODEL_TYPE"`
	ImageHostURL    string        `mapstructure:"IMAGE_HOST_URL"`
	FetchTimeout    time.Duration `mapstructure:"FETCH_TIMEOUT"`

	UploadProvider    string        `mapstructure:"UPLOAD_PROVIDER"`
	UploadTimeout     time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	ServiceAccountKey string        `mapstructure:"SERVICE_ACCOUNT_KEY"`
	StorageBucket     string        `mapstructure:"STORAGE_BUCKET"`
	ImgBBAPIKey       string        `mapstructure:"IMGBB_API_KEY"`
	ImgBBEndpoint     string        `mapstructure:"IMGBB_ENDPOINT"`

	QuotaDailyLimit    int           `mapstructure:"QUOTA_DAILY_LIMIT"`
	QuotaWindow        time.Duration `mapstructure:"QUOTA_WINDOW"`
	QuotaRetention     time.Duration `mapstructure:"QUOTA_RETENTION"`
	QuotaSweepInterval time.Duration `mapstructure:"QUOTA_SWEEP_INTERVAL"`

	CircuitMaxFailures int           `mapstructure:"CIRCUIT_MAX_FAILURES"`
	CircuitTimeout     time.Duration `mapstructure:"CIRCUIT_TIMEOUT"`

	AdminUsername       string `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash   string `mapstructure:"ADMIN_PASSWORD_HASH"`
	AdminJWTSecret      string `mapstructure:"ADMIN_JWT_SECRET"`
	AdminJWTExpiryHours int    `mapstructure:"ADMIN_JWT_EXPIRY_HOURS"`
}

var defaults = map[string]any{
	"PORT":                   "3000",
	"ENVIRONMENT":            "development",
	"DATABASE_URL":           "memory",
	"BACKEND_URL":            "",
	"BACKEND_SELECTOR":       "round_robin",
	"BACKEND_RPS":            0.0,
	"BACKEND_TIMEOUT":        "60s",
	"COOKIES":                "",
	"STATUS_UUID":            "",
	"MODEL_TYPE":             "",
	"IMAGE_HOST_URL":         "https://storage.googleapis.com/pai-images",
	"FETCH_TIMEOUT":          "30s",
	"UPLOAD_PROVIDER":        "gcs",
	"UPLOAD_TIMEOUT":         "60s",
	"SERVICE_ACCOUNT_KEY":    "",
	"STORAGE_BUCKET":         "",
	"IMGBB_API_KEY":          "",
	"IMGBB_ENDPOINT":         "https://api.imgbb.com/1/upload",
	"QUOTA_DAILY_LIMIT":      3,
	"QUOTA_WINDOW":           "24h",
	"QUOTA_RETENTION":        "720h",
	"QUOTA_SWEEP_INTERVAL":   "1h",
	"CIRCUIT_MAX_FAILURES":   5,
	"CIRCUIT_TIMEOUT":        "30s",
	"ADMIN_USERNAME":         "admin",
	"ADMIN_PASSWORD_HASH":    "",
	"ADMIN_JWT_SECRET":       "",
	"ADMIN_JWT_EXPIRY_HOURS": 12,
}

// Load reads the configuration from the process environment.
// Call godotenv.Load first if a .env file should be honoured.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if len(c.BackendURLs()) == 0 {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.QuotaDailyLimit < 0 {
		errs = append(errs, errors.New("QUOTA_DAILY_LIMIT must not be negative"))
	}
	if c.QuotaWindow <= 0 {
		errs = append(errs, errors.New("QUOTA_WINDOW must be positive"))
	}

	switch c.UploadProvider {
	case "gcs":
		if c.StorageBucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required for the gcs upload provider"))
		}
	case "imgbb":
		if c.ImgBBAPIKey == "" {
			errs = append(errs, errors.New("IMGBB_API_KEY is required for the imgbb upload provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_PROVIDER %q", c.UploadProvider))
	}

	return errors.Join(errs...)
}

// BackendURLs splits BACKEND_URL on commas.
func (c *Config) BackendURLs() []string {
	var urls []string
	for _, u := range strings.Split(c.BackendURL, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// EffectiveRetention is how long an idle quota record is kept: never less than
// one window, so expiry cannot hand a client a fresh allowance early. Zero
// disables expiry.
func (c *Config) EffectiveRetention() time.Duration {
	if c.QuotaRetention <= 0 {
		return 0
	}
	return max(c.QuotaRetention, c.QuotaWindow)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) AdminEnabled() bool {
	return c.AdminJWTSecret != ""
}
