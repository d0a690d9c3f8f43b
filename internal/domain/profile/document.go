package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

const (
	KeyProfile  = "profile"
	KeyAdminPin = "adminPin"
)

var ErrNoProfile = errors.New("document has no profile")

// Document is the whole persisted JSON object. Keys other than profile and
// adminPin are carried as raw JSON and never interpreted.
type Document struct {
	fields map[string]json.RawMessage
}

func NewDocument() *Document {
	return &Document{fields: map[string]json.RawMessage{}}
}

// ParseDocument accepts empty input as an empty document.
func ParseDocument(b []byte) (*Document, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return NewDocument(), nil
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return &Document{fields: fields}, nil
}

func (d *Document) clone() *Document {
	return &Document{fields: maps.Clone(d.fields)}
}

func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for k := range d.fields {
		keys = append(keys, k)
	}
	return keys
}

func (d *Document) Raw(key string) (json.RawMessage, bool) {
	v, ok := d.fields[key]
	return v, ok
}

func (d *Document) Profile() (*Profile, error) {
	raw, ok := d.fields[KeyProfile]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, ErrNoProfile
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed profile: %w", err)
	}
	return &p, nil
}

// WithProfile returns a copy whose profile section is p, replaced wholesale.
func (d *Document) WithProfile(p Profile) (*Document, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	out := d.clone()
	out.fields[KeyProfile] = raw
	return out, nil
}

// AdminPinHash returns "" when the secret is absent or not a JSON string.
func (d *Document) AdminPinHash() string {
	raw, ok := d.fields[KeyAdminPin]
	if !ok {
		return ""
	}
	var h string
	if err := json.Unmarshal(raw, &h); err != nil {
		return ""
	}
	return h
}

func (d *Document) WithAdminPinHash(hash string) *Document {
	out := d.clone()
	raw, _ := json.Marshal(hash)
	out.fields[KeyAdminPin] = raw
	return out
}

// Public drops the admin secret.
func (d *Document) Public() *Document {
	out := d.clone()
	delete(out.fields, KeyAdminPin)
	return out
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.fields)
}

// Encode renders the document the way it is stored on disk.
func (d *Document) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(d.fields, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
