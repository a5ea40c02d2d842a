// Package cloudflare issues temporary R2 access credentials through the Cloudflare v4 API.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/httpclient"
	"github.com/leinardi/r2-login/pkg/utils"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.cloudflare.com"

// Client calls the R2 temporary credentials endpoint.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient constructs a client. An empty baseURL selects DefaultBaseURL.
func NewClient(logger *zap.Logger, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		logger:  logger,
		exec:    httpclient.New(logger, httpClient, "Cloudflare API", nil),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CreateTempCredentials mints temporary credentials scoped by body.
// POST /client/v4/accounts/{accountID}/r2/temp-access-credentials
func (c *Client) CreateTempCredentials(ctx context.Context, accountID, apiToken string, body TempCredentialsRequest) (*TempCredentials, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/client/v4/accounts/" + url.PathEscape(accountID) + "/r2/temp-access-credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("cloudflare.request",
		zap.String("account_id", accountID),
		zap.String("bucket", body.Bucket),
		zap.Strings("prefixes", body.Prefixes),
		zap.Int("ttl_seconds", body.TTLSeconds),
		zap.String("api_token", utils.Redacted(apiToken)))

	var env Envelope
	if err := c.exec.DoJSON(ctx, req, &env); err != nil {
		return nil, err
	}

	if !env.Success {
		return nil, fmt.Errorf("Cloudflare API error: %s", utils.Truncate(compactOr(env.Errors, "[]"), httpclient.MaxErrorBody))
	}

	creds, err := parseTempCredentials(env.Result)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cloudflare.credentials_issued",
		zap.String("access_key_id", utils.Redacted(creds.AccessKeyID)),
		zap.String("secret_access_key", utils.Redacted(creds.SecretAccessKey)),
		zap.String("session_token", utils.Redacted(creds.SessionToken)))
	return creds, nil
}

// parseTempCredentials validates the result object: each credential must be a non-empty string.
func parseTempCredentials(raw json.RawMessage) (*TempCredentials, error) {
	var result map[string]any
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &result) != nil || result == nil {
		return nil, errors.New("Cloudflare API response missing result object")
	}

	get := func(key string) (string, error) {
		v, ok := result[key].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("Cloudflare API response missing '%s'", key)
		}
		return v, nil
	}

	var creds TempCredentials
	var err error
	if creds.AccessKeyID, err = get("accessKeyId"); err != nil {
		return nil, err
	}
	if creds.SecretAccessKey, err = get("secretAccessKey"); err != nil {
		return nil, err
	}
	if creds.SessionToken, err = get("sessionToken"); err != nil {
		return nil, err
	}
	return &creds, nil
}

func compactOr(raw json.RawMessage, def string) string {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return def
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
