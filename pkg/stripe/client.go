package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/kaidenz/storefront-gateway/pkg/config"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired  = errors.New("stripe api key is required")
	errSecretRequired  = errors.New("stripe webhook signing secret is required")
	errSecretMalformed = errors.New("stripe webhook signing secret must start with whsec_")
	errInvalidEnv      = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	errBadCurrency     = errors.New("stripe currency must be a three-letter ISO code")
)

// keyPrefixes maps each environment to the secret key prefixes it accepts.
var keyPrefixes = map[string][]string{
	testEnv: {"sk_test", "rk_test"},
	liveEnv: {"sk_live", "rk_live"},
}

// Client holds the initialized Stripe API handle plus the checkout
// settings the gateway needs at call time.
type Client struct {
	api           *stripe.Client
	environment   string
	currency      string
	signingSecret string
}

// NewClient initializes Stripe once from the storefront config. The key
// must match the declared environment so a live key never reaches a test
// deployment by accident.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := checkKeyPrefix(env, apiKey); err != nil {
		return nil, err
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}
	if !strings.HasPrefix(signingSecret, "whsec_") {
		return nil, errSecretMalformed
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if len(currency) != 3 {
		return nil, errBadCurrency
	}

	api := stripe.NewClient(apiKey)
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s, %s)", env, currency))
	}

	return &Client{
		api:           api,
		environment:   env,
		currency:      currency,
		signingSecret: signingSecret,
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Currency returns the normalized checkout currency code.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	if _, ok := keyPrefixes[env]; !ok {
		return "", errInvalidEnv
	}
	return env, nil
}

func checkKeyPrefix(env, key string) error {
	for _, prefix := range keyPrefixes[env] {
		if strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return fmt.Errorf("stripe environment %q requires a key with prefix %s", env, strings.Join(keyPrefixes[env], " or "))
}
