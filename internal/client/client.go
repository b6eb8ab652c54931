// Package client is the authenticated AidTrace API client. It attaches the
// session's bearer token to every request, refreshes an expired access token
// once per request, and degrades to cached or placeholder results for a fixed
// set of operations when the network is unavailable.
package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/spec-kit/aidtrace/internal/events"
	"github.com/spec-kit/aidtrace/internal/observability"
	"github.com/spec-kit/aidtrace/internal/offline"
	"github.com/spec-kit/aidtrace/internal/session"
)

// LoginPath is where a user is sent after the session can no longer be refreshed.
const LoginPath = "/login"

// Config holds the values fixed for the lifetime of a Client.
type Config struct {
	BaseURL string
	// Headers are sent with every request. Content-Type defaults to application/json.
	Headers map[string]string
	Store   *session.Store
	Timeout time.Duration
}

// BreakerSettings tunes the transport circuit breaker.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Client talks to the AidTrace API. It is safe for concurrent use.
type Client struct {
	baseURL string
	headers http.Header
	store   *session.Store
	timeout time.Duration

	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	refreshes  singleflight.Group
	monitor    Monitor
	cache      offline.Cache
	queue      offline.Queue
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// Option customises a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	breaker    BreakerSettings
	limiter    *rate.Limiter
	monitor    Monitor
	cache      offline.Cache
	queue      offline.Queue
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func WithHTTPClient(hc *http.Client) Option       { return func(o *options) { o.httpClient = hc } }
func WithBreaker(s BreakerSettings) Option        { return func(o *options) { o.breaker = s } }
func WithMonitor(m Monitor) Option                { return func(o *options) { o.monitor = m } }
func WithCache(c offline.Cache) Option            { return func(o *options) { o.cache = c } }
func WithQueue(q offline.Queue) Option            { return func(o *options) { o.queue = q } }
func WithEvents(d events.Dispatcher) Option       { return func(o *options) { o.dispatcher = d } }
func WithLogger(l *zap.Logger) Option             { return func(o *options) { o.logger = l } }
func WithMetrics(m *observability.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithRateLimit caps outgoing requests at perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New builds a client from cfg.
func New(cfg Config, opts ...Option) *Client {
	o := options{
		breaker: BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	store := cfg.Store
	if store == nil {
		store = session.NewStore(nil)
	}
	if o.monitor == nil {
		o.monitor = NewTransportMonitor()
	}
	if o.cache == nil {
		o.cache = offline.NewMemoryCache(128, time.Hour)
	}
	if o.queue == nil {
		o.queue = offline.NewMemoryQueue()
	}
	if o.dispatcher == nil {
		o.dispatcher = events.Nop{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    headers,
		store:      store,
		timeout:    cfg.Timeout,
		http:       hc,
		limiter:    o.limiter,
		monitor:    o.monitor,
		cache:      o.cache,
		queue:      o.queue,
		dispatcher: o.dispatcher,
		logger:     o.logger,
		metrics:    o.metrics,
	}
	c.breaker = newBreaker(o.breaker, c.logger)
	return c
}

// Store returns the session store the client reads credentials from.
func (c *Client) Store() *session.Store { return c.store }

// Queue returns the pending-action queue fed by offline writes.
func (c *Client) Queue() offline.Queue { return c.queue }

// Monitor returns the connectivity monitor consulted by offline fallbacks.
func (c *Client) Monitor() Monitor { return c.monitor }

func newBreaker(s BreakerSettings, logger *zap.Logger) *gobreaker.CircuitBreaker {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "aidtrace-api",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
