package secrets

import "context"

// Provider defines a generic secrets backend.
// Concrete implementations (Bitwarden CLI, AWS Secrets Manager) satisfy this.
type Provider interface {
	// GetSecret retrieves a secret by its identifier and returns its string-valued fields.
	GetSecret(ctx context.Context, id string) (map[string]string, error)

	// ListSecrets returns the identifiers of all secrets matching query.
	ListSecrets(ctx context.Context, query string) ([]string, error)
}
