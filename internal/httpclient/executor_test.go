package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExec(client *http.Client) *Executor {
	return New(zap.NewNop(), client, "test", nil)
}

// ─── Basic success ────────────────────────────────────────────────────────────

func TestDoJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	}))
	defer srv.Close()

	exec := newExec(srv.Client())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	var out map[string]string
	require.NoError(t, exec.DoJSON(context.Background(), req, &out))
	assert.Equal(t, "ok", out["result"])
}

// ─── POST body is delivered ───────────────────────────────────────────────────

func TestDoJSON_PostBodyDelivered(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received = string(b)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	exec := newExec(srv.Client())
	bodyBytes, _ := json.Marshal(map[string]string{"value": "hello"})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, bytes.NewReader(bodyBytes))

	require.NoError(t, exec.DoJSON(context.Background(), req, nil))
	assert.JSONEq(t, `{"value":"hello"}`, received)
}

// ─── 5xx: no retry ────────────────────────────────────────────────────────────

func TestDoJSON_ServerErrorNotRetried(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("try later"))
	}))
	defer srv.Close()

	exec := newExec(srv.Client())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	err := exec.DoJSON(context.Background(), req, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Equal(t, "try later", string(statusErr.Body))
	assert.Equal(t, "test HTTP 503: try later", err.Error())
	assert.EqualValues(t, 1, count.Load(), "requests must not be retried")
}

// ─── Custom error handler receives body ──────────────────────────────────────

func TestDoJSON_CustomErrorHandlerCalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"INVALID"}`))
	}))
	defer srv.Close()

	exec := New(zap.NewNop(), srv.Client(), "test", func(status int, body []byte) error {
		return fmt.Errorf("api %d: %s", status, body)
	})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, nil)

	err := exec.DoJSON(context.Background(), req, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "INVALID")
}

// ─── Transport failures ──────────────────────────────────────────────────────

func TestDoJSON_ConnectionRefusedIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	exec := newExec(&http.Client{Timeout: time.Second})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)

	err := exec.DoJSON(context.Background(), req, nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "test connection error")
}

func TestDoJSON_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	exec := newExec(&http.Client{Timeout: 50 * time.Millisecond})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	err := exec.DoJSON(context.Background(), req, nil)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
}

// ─── JSON decode error ────────────────────────────────────────────────────────

func TestDoJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	exec := newExec(srv.Client())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	var out map[string]string
	err := exec.DoJSON(context.Background(), req, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
}

func TestDoJSON_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := newExec(srv.Client())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	var out map[string]string
	err := exec.DoJSON(context.Background(), req, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty body")
}

func TestNew_DefaultClientTimeout(t *testing.T) {
	exec := New(zap.NewNop(), nil, "test", nil)
	assert.Equal(t, DefaultTimeout, exec.http.Timeout)
}
