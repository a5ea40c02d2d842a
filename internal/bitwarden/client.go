// Package bitwarden drives the Bitwarden CLI (`bw`) to read custom fields of vault items.
package bitwarden

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/proc"
	"github.com/leinardi/r2-login/pkg/utils"
)

const (
	// SessionEnv is the variable bw reads its session token from.
	SessionEnv = "BW_SESSION"

	maxSnippet = 500
)

// ErrNotLoggedIn is returned when the CLI has no account configured.
var ErrNotLoggedIn = errors.New("Bitwarden CLI is not logged in; run: bw login")

// Client wraps invocations of the bw binary.
type Client struct {
	logger *zap.Logger
	runner proc.Runner
	bin    string
}

// NewClient constructs a client running bin (normally "bw") through runner.
func NewClient(logger *zap.Logger, runner proc.Runner, bin string) *Client {
	if bin == "" {
		bin = "bw"
	}
	return &Client{logger: logger, runner: runner, bin: bin}
}

// Status runs `bw status`.
func (c *Client) Status(ctx context.Context, session string) (Status, error) {
	var st Status
	raw, err := c.run(ctx, []string{"status"}, session, proc.Captured)
	if err != nil {
		return st, err
	}
	if err := c.decode("bw status", raw, true, &st); err != nil {
		return st, err
	}
	c.logger.Debug("bw.status", zap.String("status", st.Status))
	return st, nil
}

// Unlock runs `bw unlock --raw` with the terminal attached for the password prompt
// and returns the new session token.
func (c *Client) Unlock(ctx context.Context) (string, error) {
	token, err := c.run(ctx, []string{"unlock", "--raw"}, "", proc.Passthrough)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("bw unlock --raw returned empty session token")
	}
	c.logger.Debug("bw.unlocked", zap.String("session", utils.Redacted(token)))
	return token, nil
}

// ListItems runs `bw list items --search <search>`.
func (c *Client) ListItems(ctx context.Context, session, search string) ([]ItemSummary, error) {
	raw, err := c.run(ctx, []string{"list", "items", "--search", search}, session, proc.Captured)
	if err != nil {
		return nil, err
	}
	var items []ItemSummary
	if err := c.decode("bw list items", raw, true, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem runs `bw get item <id>`. The item document is never logged.
func (c *Client) GetItem(ctx context.Context, session, id string) (*Item, error) {
	raw, err := c.run(ctx, []string{"get", "item", id}, session, proc.Captured)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := c.decode("bw get item", raw, false, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) run(ctx context.Context, args []string, session string, mode proc.Mode) (string, error) {
	cmd := proc.Command{Name: c.bin, Args: args, Mode: mode}
	if session != "" {
		cmd.Env = []string{SessionEnv + "=" + session}
	}

	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		var exitErr *proc.ExitError
		if errors.As(err, &exitErr) {
			msg := fmt.Sprintf("bw %s failed (rc=%d)", strings.Join(args, " "), exitErr.Code)
			if snippet := utils.Snippet(exitErr.Stderr, maxSnippet); snippet != "" {
				msg += ": " + snippet
			}
			return "", errors.New(msg)
		}
		return "", fmt.Errorf("bw %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// decode parses raw into out. When safeToShow is false the raw document and
// decoder messages that could quote it are kept out of logs and errors.
func (c *Client) decode(label, raw string, safeToShow bool, out any) error {
	if raw == "" {
		return fmt.Errorf("%s returned empty output on stdout", label)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		if safeToShow {
			c.logger.Debug("bw.raw_stdout",
				zap.String("label", label),
				zap.String("first_500", utils.Truncate(raw, maxSnippet)))
			return fmt.Errorf("failed to parse JSON from %s: %w", label, err)
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("failed to parse JSON from %s: syntax error at offset %d", label, syntaxErr.Offset)
		}
		return fmt.Errorf("failed to parse JSON from %s: %w", label, err)
	}
	return nil
}
