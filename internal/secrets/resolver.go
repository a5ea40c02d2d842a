package secrets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	pkgsecrets "github.com/leinardi/r2-login/pkg/secrets"
)

// Selector identifies one secret item. ID wins over Name when both are set.
type Selector struct {
	ID   string
	Name string
}

// Resolver turns a Selector into the item's field map using any Provider.
type Resolver struct {
	logger   *zap.Logger
	source   string
	idFlag   string
	provider pkgsecrets.Provider
}

// NewResolver constructs a resolver. source names the backend in error messages
// (e.g. "Bitwarden"); idFlag is the flag users should pass to disambiguate a search.
func NewResolver(logger *zap.Logger, source, idFlag string, provider pkgsecrets.Provider) *Resolver {
	return &Resolver{
		logger:   logger,
		source:   source,
		idFlag:   idFlag,
		provider: provider,
	}
}

// ResolveID returns sel.ID verbatim, or the single item matching a name search.
func (r *Resolver) ResolveID(ctx context.Context, sel Selector) (string, error) {
	if sel.ID != "" {
		return sel.ID, nil
	}
	if sel.Name == "" {
		return "", fmt.Errorf("provide %s (preferred) or an item name", r.idFlag)
	}

	ids, err := r.provider.ListSecrets(ctx, sel.Name)
	if err != nil {
		return "", err
	}
	if len(ids) != 1 {
		return "", fmt.Errorf("%s search for '%s' returned %d items; use %s to disambiguate",
			r.source, sel.Name, len(ids), r.idFlag)
	}
	if ids[0] == "" {
		return "", fmt.Errorf("%s search result missing item id", r.source)
	}

	r.logger.Debug("secrets.item_resolved", zap.String("name", sel.Name))
	return ids[0], nil
}

// Fields resolves sel and returns all string-valued fields of the item.
// Only field names are logged.
func (r *Resolver) Fields(ctx context.Context, sel Selector) (map[string]string, error) {
	id, err := r.ResolveID(ctx, sel)
	if err != nil {
		return nil, err
	}

	fields, err := r.provider.GetSecret(ctx, id)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("secrets.fields_loaded",
		zap.Int("count", len(fields)),
		zap.Strings("names", SortedNames(fields)))
	return fields, nil
}

// MissingFieldsError lists required fields that were absent or empty.
type MissingFieldsError struct {
	Source string
	Names  []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required %s fields: %s", e.Source, strings.Join(e.Names, ", "))
}

// Require checks that every name in required maps to a non-empty value.
// All missing names are reported together, sorted.
func Require(source string, fields map[string]string, required []string) error {
	seen := make(map[string]struct{}, len(required))
	var missing []string
	for _, name := range required {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &MissingFieldsError{Source: source, Names: missing}
}

// Select keeps only the keys listed in names. An empty names list keeps everything.
// Requested keys that are absent are dropped silently.
func Select(fields map[string]string, names []string) map[string]string {
	if len(names) == 0 {
		return fields
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := fields[name]; ok {
			out[name] = v
		}
	}
	return out
}

// SortedNames returns the keys of fields in sorted order.
func SortedNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
