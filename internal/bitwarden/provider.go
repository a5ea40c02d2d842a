package bitwarden

import (
	"context"
)

// Provider exposes a Bitwarden vault as a secrets.Provider bound to one session.
type Provider struct {
	client  *Client
	session string
}

// NewProvider binds client to an unlocked session.
func NewProvider(client *Client, session string) *Provider {
	return &Provider{client: client, session: session}
}

// GetSecret returns the string-valued custom fields of the item with the given id.
func (p *Provider) GetSecret(ctx context.Context, id string) (map[string]string, error) {
	item, err := p.client.GetItem(ctx, p.session, id)
	if err != nil {
		return nil, err
	}
	return item.FieldMap(), nil
}

// ListSecrets returns the ids of items matching a name search.
func (p *Provider) ListSecrets(ctx context.Context, search string) ([]string, error) {
	items, err := p.client.ListItems(ctx, p.session, search)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}
