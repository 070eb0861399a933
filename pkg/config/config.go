package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "kaidenz"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Cookies  CookieConfig
	Stripe   StripeConfig
	Redis    RedisConfig
	State    StateConfig
	CORS     CORSConfig
	Web      WebConfig
	Maps     MapsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAIDENZ_APP_ENV" default:"development"`
	Port         string `envconfig:"KAIDENZ_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"KAIDENZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAIDENZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the Java storefront backend every proxy call
// forwards to.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"KAIDENZ_UPSTREAM_BASE_URL" default:"http://localhost:8080/kaidenz"`
	Timeout time.Duration `envconfig:"KAIDENZ_UPSTREAM_TIMEOUT" default:"10s"`
}

type CookieConfig struct {
	MaxAgeSeconds int    `envconfig:"KAIDENZ_COOKIE_MAX_AGE_SECONDS" default:"3600"`
	Secure        bool   `envconfig:"KAIDENZ_COOKIE_SECURE" default:"false"`
	Domain        string `envconfig:"KAIDENZ_COOKIE_DOMAIN"`
}

type StripeConfig struct {
	APIKey     string        `envconfig:"KAIDENZ_STRIPE_API_KEY"`
	Secret     string        `envconfig:"KAIDENZ_STRIPE_SECRET"`
	Env        string        `envconfig:"KAIDENZ_STRIPE_ENV" default:"test"`
	Currency   string        `envconfig:"KAIDENZ_STRIPE_CURRENCY" default:"usd"`
	SuccessURL string        `envconfig:"KAIDENZ_STRIPE_SUCCESS_URL" default:"http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL  string        `envconfig:"KAIDENZ_STRIPE_CANCEL_URL" default:"http://localhost:3000/checkout"`
	WebhookTTL time.Duration `envconfig:"KAIDENZ_STRIPE_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type RedisConfig struct {
	URL          string        `envconfig:"KAIDENZ_REDIS_URL"`
	Address      string        `envconfig:"KAIDENZ_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"KAIDENZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAIDENZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAIDENZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAIDENZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAIDENZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAIDENZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAIDENZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// StateConfig bounds the per-session cart/wishlist store cache.
type StateConfig struct {
	SessionTTL    time.Duration `envconfig:"KAIDENZ_STATE_SESSION_TTL" default:"1h"`
	SweepInterval time.Duration `envconfig:"KAIDENZ_STATE_SWEEP_INTERVAL" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"KAIDENZ_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// WebConfig locates the built storefront assets served behind the route
// guard.
type WebConfig struct {
	StaticDir string `envconfig:"KAIDENZ_WEB_STATIC_DIR" default:"web/dist"`
}

// MapsConfig enables address autocomplete when an API key is present.
type MapsConfig struct {
	APIKey      string   `envconfig:"KAIDENZ_MAPS_API_KEY"`
	RegionCodes []string `envconfig:"KAIDENZ_MAPS_REGION_CODES" default:"US"`
}

// Enabled reports whether address autocomplete should be wired up.
func (m MapsConfig) Enabled() bool {
	return strings.TrimSpace(m.APIKey) != ""
}
