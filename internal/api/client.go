package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Default EastMoney endpoints.
const (
	DefaultQuoteURL = "https://push2.eastmoney.com/api/qt/stock/trends2/get"
	DefaultKlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
)

// Client provides access to the EastMoney quote API.
type Client struct {
	quoteURL   string
	klineURL   string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new EastMoney client. Requests are not retried unless
// WithRetries is given.
func NewClient(quoteURL string, opts ...ClientOption) *Client {
	if quoteURL == "" {
		quoteURL = DefaultQuoteURL
	}
	c := &Client{
		quoteURL: quoteURL,
		klineURL: DefaultKlineURL,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
		logger:       slog.Default(),
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithKlineURL overrides the history kline endpoint.
func WithKlineURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.klineURL = u
		}
	}
}

// WithRateLimit caps outgoing requests to perSecond with the given burst.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// BreakerConfig controls the upstream circuit breaker.
type BreakerConfig struct {
	ConsecutiveFailures uint32        // Trip after this many transport/5xx failures in a row
	OpenTimeout         time.Duration // Time spent open before probing again
}

// WithBreaker wraps every request in a circuit breaker. While open, requests
// fail fast with gobreaker.ErrOpenState.
func WithBreaker(cfg BreakerConfig) ClientOption {
	return func(c *Client) {
		if cfg.ConsecutiveFailures == 0 {
			cfg.ConsecutiveFailures = 10
		}
		if cfg.OpenTimeout <= 0 {
			cfg.OpenTimeout = 30 * time.Second
		}
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "eastmoney",
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			IsSuccessful: isSuccessfulForBreaker,
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		})
	}
}

// BreakerState reports the breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}
