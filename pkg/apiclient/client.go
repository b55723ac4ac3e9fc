// Package apiclient talks to the store backend REST API. It injects the
// cashier's bearer token, clears the session when the backend answers 401,
// trips a circuit breaker on repeated transport or server failures, and
// normalizes every error payload into the local error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tokosehat/kasir/pkg/config"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/metrics"
	"github.com/tokosehat/kasir/pkg/types"
)

const (
	defaultTimeout          = 15 * time.Second
	errorBodyReadLimit int64 = 64 * 1024
	breakerName              = "store-api"

	// MsgUnreachable is shown when the backend cannot be reached at all.
	MsgUnreachable = "Tidak dapat terhubung ke server"
	// MsgUnexpected is the generic fallback when the backend gives no message.
	MsgUnexpected = "Terjadi kesalahan"
)

var errBaseURLRequired = errors.New("api base url is required")

// Credentials supplies the bearer token and is cleared when the backend rejects it.
type Credentials interface {
	Token() string
	Clear(ctx context.Context) error
}

// Client wraps the store backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	logg       *logger.Logger
	metrics    *metrics.RegisterMetrics
	breakerCfg config.BreakerConfig
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
}

type rawResponse struct {
	status      int
	body        []byte
	contentType string
	disposition string
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

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithCredentials attaches the session providing the bearer token.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.RegisterMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker overrides the circuit breaker thresholds.
func WithBreaker(cfg config.BreakerConfig) Option {
	return func(c *Client) {
		c.breakerCfg = cfg
	}
}

// New builds a client rooted at baseURL, e.g. "http://kasir-toko-sehat-ws.test/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logg:       logger.Nop(),
		breakerCfg: config.BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	client.breaker = client.newBreaker()
	return client, nil
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[*rawResponse] {
	failures := c.breakerCfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: c.breakerCfg.MaxRequests,
		Interval:    c.breakerCfg.Interval,
		Timeout:     c.breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.metrics.SetBreakerState(name, int(to))
			c.logg.Warn(c.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}), "store api circuit breaker changed state")
		},
	})
}

// BreakerState reports the breaker state, for readiness checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs a JSON request. out may be nil when the body is irrelevant.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.execute(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode store api response")
	}
	return nil
}

// File is a binary payload such as a server-rendered PDF report.
type File struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Download performs a request whose successful response is binary.
func (c *Client) Download(ctx context.Context, method, path string, body any) (*File, error) {
	resp, err := c.execute(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	return &File{
		Data:        resp.body,
		ContentType: resp.contentType,
		Filename:    filenameFromDisposition(resp.disposition),
	}, nil
}

func (c *Client) execute(ctx context.Context, method, path string, query url.Values, body any) (*rawResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store api client not configured")
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal store api request")
		}
		payload = encoded
	}

	started := time.Now()
	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.roundTrip(ctx, method, path, query, payload)
	})
	c.metrics.ObserveUpstream(method, statusLabel(resp, err), time.Since(started))

	if err != nil {
		return nil, c.transportError(ctx, method, path, err)
	}
	if resp.status >= http.StatusBadRequest {
		return nil, c.statusError(ctx, method, path, resp)
	}
	return resp, nil
}

// roundTrip runs inside the breaker. Only transport failures and 5xx answers
// are returned as errors so client mistakes never trip the breaker.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) (*rawResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build store api request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var src io.Reader = resp.Body
	if resp.StatusCode >= http.StatusBadRequest {
		src = io.LimitReader(resp.Body, errorBodyReadLimit)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	raw := &rawResponse{
		status:      resp.StatusCode,
		body:        data,
		contentType: resp.Header.Get("Content-Type"),
		disposition: resp.Header.Get("Content-Disposition"),
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return raw, upstreamFrom(method, path, raw)
	}
	return raw, nil
}

func (c *Client) transportError(ctx context.Context, method, path string, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	var upstream *pkgerrors.Upstream
	if errors.As(err, &upstream) {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
			"method": method,
			"path":   path,
			"status": upstream.Status,
		}), "store api server error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, upstream, messageOr(upstream.Message, MsgUnexpected))
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgUnreachable)
	}
	c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
		"method": method,
		"path":   path,
		"error":  err.Error(),
	}), "store api unreachable")
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgUnreachable)
}

func (c *Client) statusError(ctx context.Context, method, path string, resp *rawResponse) error {
	upstream := upstreamFrom(method, path, resp)
	code := pkgerrors.CodeForStatus(resp.status)

	if code == pkgerrors.CodeUnauthorized && c.creds != nil {
		if err := c.creds.Clear(ctx); err != nil {
			c.logg.Error(ctx, "failed to clear session after 401", err)
		}
	}

	typed := pkgerrors.Wrap(code, upstream, messageOr(upstream.Message, fallbackMessage(code)))
	if len(upstream.Fields) > 0 && pkgerrors.MetadataFor(code).DetailsAllowed {
		typed = typed.WithDetails(upstream.Fields)
	}
	return typed
}

func upstreamFrom(method, path string, resp *rawResponse) *pkgerrors.Upstream {
	upstream := &pkgerrors.Upstream{Method: method, Path: path, Status: resp.status}
	var body types.RemoteErrorBody
	if err := json.Unmarshal(resp.body, &body); err == nil {
		upstream.Message = body.BestMessage()
		upstream.Fields = body.FieldErrors()
	}
	return upstream
}

func fallbackMessage(code pkgerrors.Code) string {
	switch code {
	case pkgerrors.CodeUnauthorized:
		return "Sesi berakhir, silakan login kembali"
	case pkgerrors.CodeNotFound:
		return "Data tidak ditemukan"
	case pkgerrors.CodeValidation:
		return "Data tidak valid"
	default:
		return MsgUnexpected
	}
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

func statusLabel(resp *rawResponse, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.status)
	}
	if err != nil {
		return "error"
	}
	return "unknown"
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func filenameFromDisposition(header string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, "filename="); ok {
			return strings.Trim(name, `"`)
		}
	}
	return ""
}
