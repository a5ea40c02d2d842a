package bitwarden

import (
	"context"
	"fmt"
)

// EnsureSession returns a usable session token.
//
// The vault status is always queried first. An unlocked vault reuses existing
// when it is non-empty; otherwise an interactive unlock is still needed because
// the status document carries no token.
func (c *Client) EnsureSession(ctx context.Context, existing string) (string, error) {
	st, err := c.Status(ctx, existing)
	if err != nil {
		return "", err
	}

	switch st.Status {
	case StatusUnlocked:
		if existing != "" {
			return existing, nil
		}
		return c.Unlock(ctx)
	case StatusLocked:
		return c.Unlock(ctx)
	case StatusUnauthenticated:
		return "", ErrNotLoggedIn
	default:
		return "", fmt.Errorf("unexpected bw status: %q", st.Status)
	}
}
