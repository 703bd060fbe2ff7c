// Package registry defines the domain types for NAAN registry data: the
// records published by the upstream registry and the immutable snapshots
// this service caches and resolves against.
package registry

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Target is the redirect destination attached to a registered prefix.
// The URL is a template whose trailing "${content}" placeholder marks where
// the full identifier is substituted during resolution.
//
// The upstream registry may attach additional fields to a target; they are
// preserved verbatim so the resolver map endpoint can pass them through.
type Target struct {
	// URL is the redirect URL template.
	URL string `json:"url"`

	// HTTPCode is the HTTP status code to use for the redirect.
	HTTPCode int `json:"http_code"`

	// raw is the original JSON of the target object, kept so unknown
	// fields survive a decode/encode round trip.
	raw json.RawMessage
}

// UnmarshalJSON decodes the known target fields and retains the original
// JSON for opaque pass-through.
func (t *Target) UnmarshalJSON(data []byte) error {
	type alias Target
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Target(a)
	t.raw = bytes.Clone(data)
	return nil
}

// MarshalJSON emits the original target JSON when available so fields this
// service does not model are not dropped.
func (t Target) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	type alias Target
	return json.Marshal(alias(t))
}

// NaanRecord is one entry of the upstream NAAN registry: a registered
// prefix (the "what") and the redirect target bound to it. Registry records
// carry further metadata fields; this service only needs these two.
type NaanRecord struct {
	What   string `json:"what"`
	Target Target `json:"target"`
}

// Snapshot is one immutable, fully-loaded copy of the registry at a point
// in time. It is created by a fetch or a cache load and never mutated.
type Snapshot struct {
	// Document is the complete raw registry JSON as retrieved, including
	// top-level fields this service does not interpret.
	Document json.RawMessage

	// Records are the parsed entries of the document's "data" array, in
	// document order.
	Records []NaanRecord

	// CapturedAt is when this snapshot was fetched or written to cache.
	CapturedAt time.Time

	// Hash is the hex-encoded SHA-256 of Document, used for change
	// logging and idempotence checks.
	Hash string
}

// envelope is the top-level shape of the upstream registry document.
type envelope struct {
	Data []NaanRecord `json:"data"`
}

// ParseSnapshot builds a Snapshot from a raw registry document. It fails
// when the document is not valid JSON or its top-level "data" field is
// missing or not an array of records.
func ParseSnapshot(doc []byte, capturedAt time.Time) (*Snapshot, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("invalid registry document: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("registry document has no top-level %q field", "data")
	}

	var e envelope
	if err := json.Unmarshal(doc, &e); err != nil {
		return nil, fmt.Errorf("invalid registry records: %w", err)
	}

	sum := sha256.Sum256(doc)

	return &Snapshot{
		Document:   bytes.Clone(doc),
		Records:    e.Data,
		CapturedAt: capturedAt,
		Hash:       hex.EncodeToString(sum[:]),
	}, nil
}

// HashPreview returns a short form of the snapshot hash for log lines.
func (s *Snapshot) HashPreview() string {
	if len(s.Hash) > 8 {
		return s.Hash[:8]
	}
	return s.Hash
}
