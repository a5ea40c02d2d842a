package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/leinardi/r2-login/pkg/utils"
)

const (
	// DefaultTimeout bounds a whole request, including reading the body.
	DefaultTimeout = 30 * time.Second
	// MaxErrorBody caps how much of an error response is quoted.
	MaxErrorBody = 1000
)

// TransportError means no HTTP response was obtained (DNS, connect, TLS, timeout).
type TransportError struct {
	Tag string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s connection error: %v", e.Tag, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a response with status >= 400.
type StatusError struct {
	Tag    string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s HTTP %d", e.Tag, e.Status)
	}
	return fmt.Sprintf("%s HTTP %d: %s", e.Tag, e.Status, utils.Truncate(string(e.Body), MaxErrorBody))
}

// Executor performs single-attempt HTTP requests with JSON decoding.
// Requests are never retried.
type Executor struct {
	logger       *zap.Logger
	http         *http.Client
	tag          string
	errorHandler func(status int, body []byte) error
}

// NewHTTPClient returns a client with the default timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// New creates an Executor. errorHandler is called on >= 400 responses to produce an
// API-specific error. If nil, a *StatusError is returned.
func New(
	logger *zap.Logger,
	httpClient *http.Client,
	tag string,
	errorHandler func(status int, body []byte) error,
) *Executor {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Executor{
		logger:       logger,
		http:         httpClient,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

// DoJSON executes req once, then JSON-decodes the response body into out.
// Response bodies are never logged; they may carry credentials.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, out any) error {
	start := time.Now()
	resp, err := e.http.Do(req.WithContext(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr == context.Canceled {
			return ctxErr
		}
		e.logger.Debug(e.tag+".http_failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return &TransportError{Tag: e.tag, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Tag: e.tag, Err: fmt.Errorf("read body: %w", err)}
	}
	elapsed := time.Since(start)

	if resp.StatusCode >= 400 {
		e.logger.Debug(e.tag+".http_error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", req.URL.String()),
			zap.Duration("latency", elapsed))
		if e.errorHandler != nil {
			return e.errorHandler(resp.StatusCode, body)
		}
		return &StatusError{Tag: e.tag, Status: resp.StatusCode, Body: body}
	}

	if out != nil {
		if len(body) == 0 {
			return fmt.Errorf("%s returned empty body", e.tag)
		}
		if err := json.Unmarshal(body, out); err != nil {
			e.logger.Debug(e.tag+".decode_failed",
				zap.Error(err),
				zap.String("url", req.URL.String()),
				zap.Int("body_len", len(body)))
			return fmt.Errorf("%s decode failed: %w", e.tag, err)
		}
	}

	e.logger.Debug(e.tag+".http_success",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return nil
}
