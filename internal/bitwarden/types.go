package bitwarden

import (
	"bytes"
	"encoding/json"
)

// Vault states reported by `bw status`.
const (
	StatusUnlocked        = "unlocked"
	StatusLocked          = "locked"
	StatusUnauthenticated = "unauthenticated"
)

// Status is the `bw status` document.
type Status struct {
	Status    string `json:"status"`
	ServerURL string `json:"serverUrl,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// ItemSummary is one entry of `bw list items`.
type ItemSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is the `bw get item` document, reduced to what is consumed here.
type Item struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field is one custom field. Entries whose name or value is not a JSON string
// decode without error and are marked invalid.
type Field struct {
	Name  string
	Value string
	valid bool
}

// Valid reports whether both name and value were JSON strings.
func (f Field) Valid() bool { return f.valid }

func (f *Field) UnmarshalJSON(b []byte) error {
	*f = Field{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	name, ok := jsonString(raw["name"])
	if !ok {
		return nil
	}
	value, ok := jsonString(raw["value"])
	if !ok {
		return nil
	}

	*f = Field{Name: name, Value: value, valid: true}
	return nil
}

func jsonString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// FieldMap returns name → value for every valid field. Later duplicates overwrite earlier ones.
func (it *Item) FieldMap() map[string]string {
	out := make(map[string]string, len(it.Fields))
	for _, f := range it.Fields {
		if f.Valid() {
			out[f.Name] = f.Value
		}
	}
	return out
}
