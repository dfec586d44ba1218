// Package canister reaches the dispute, evidence, analysis and escrow
// canisters through the HTTP JSON gateway. One Client is built at startup
// and shared by every service.
package canister

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/arbitra-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

const (
	responseBodyReadLimit int64 = 8 << 20
	errorBodyReadLimit    int64 = 1024
	minRetryBackoff             = time.Millisecond
)

// Names holds the canister identifiers used as the first path segment.
type Names struct {
	DisputeLedger  string
	EvidenceVault  string
	AnalysisEngine string
	Escrow         string
}

// Client calls collaborator canisters. Each call gets its own timeout and
// transport failures are retried a bounded number of times. Replies of the
// form {"err": ...} are never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	names      Names
	timeout    time.Duration
	backoff    time.Duration
	maxRetries uint64
	dialect    string
	metrics    *metrics.CanisterMetrics
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records call latency and outcomes.
func WithMetrics(m *metrics.CanisterMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger logs failed attempts.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the gateway client from configuration.
func NewClient(cfg config.CanisterConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/")
	if baseURL == "" {
		return nil, errors.New("canister gateway url is required")
	}
	if cfg.CallTimeout <= 0 {
		return nil, errors.New("canister call timeout must be positive")
	}

	client := &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		names: Names{
			DisputeLedger:  strings.TrimSpace(cfg.DisputeLedger),
			EvidenceVault:  strings.TrimSpace(cfg.EvidenceVault),
			AnalysisEngine: strings.TrimSpace(cfg.AnalysisEngine),
			Escrow:         strings.TrimSpace(cfg.Escrow),
		},
		timeout: cfg.CallTimeout,
		backoff: cfg.RetryBackoff,
		dialect: strings.ToLower(strings.TrimSpace(cfg.StatusDialect)),
	}
	if cfg.MaxRetries > 0 {
		client.maxRetries = uint64(cfg.MaxRetries)
	}
	if client.backoff < minRetryBackoff {
		client.backoff = minRetryBackoff
	}
	if client.dialect == "" {
		client.dialect = config.StatusDialectCanonical
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client, nil
}

// Names returns the configured canister identifiers.
func (c *Client) Names() Names {
	return c.names
}

type callRequest struct {
	Args []any `json:"args"`
}

// call posts args to {base}/{canister}/{method} and decodes the reply into out.
func (c *Client) call(ctx context.Context, canister, method string, args []any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeConnection, "canister client not configured")
	}
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(callRequest{Args: args})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode canister arguments")
	}

	start := time.Now()
	attempt := 0
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewConstant(c.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.metrics.IncRetry(canister, method)
		}
		callErr := c.attempt(ctx, canister, method, payload, out)
		if callErr == nil {
			return nil
		}
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"canister": canister,
				"method":   method,
				"attempt":  attempt,
				"error":    callErr.Error(),
			})
			c.logg.Warn(logCtx, "canister.call.failed")
		}
		if isTransportFailure(callErr) {
			return retry.RetryableError(callErr)
		}
		return callErr
	})

	outcome := metrics.OutcomeOK
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeConnection, err, fmt.Sprintf("call %s.%s", canister, method))
		}
		outcome = metrics.OutcomeTransport
		if !pkgerrors.IsCode(err, pkgerrors.CodeConnection) {
			outcome = metrics.OutcomeRejected
		}
	}
	c.metrics.ObserveCall(canister, method, outcome, time.Since(start))
	return err
}

func (c *Client) attempt(ctx context.Context, canister, method string, payload []byte, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + canister + "/" + method
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build canister request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return &transportError{cause: fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.New(pkgerrors.CodeConnection, fmt.Sprintf("gateway rejected %s.%s with status %d: %s", canister, method, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return &transportError{cause: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConnection, err, fmt.Sprintf("decode %s.%s reply", canister, method))
	}
	return nil
}

// transportError marks failures worth another attempt.
type transportError struct {
	cause error
}

func (e *transportError) Error() string {
	return "transport: " + e.cause.Error()
}

func (e *transportError) Unwrap() error {
	return e.cause
}

func isTransportFailure(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}
