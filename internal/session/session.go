// Package session implements the browser-session lifecycle: construction,
// registry, persistence, and resilient access to the underlying runtime.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State describes the lifecycle phase of a session.
type State string

const (
	// StateActive indicates the session has a live runtime handle.
	StateActive State = "active"

	// StateClosed indicates the session was shut down and its handle
	// released.
	StateClosed State = "closed"
)

// ErrEmptyID is returned when WithID is given an empty identifier.
// Callers that want a generated identifier omit the option entirely;
// passing an explicit empty value never silently re-enables generation.
var ErrEmptyID = errors.New("session: identifier must not be empty")

// Session is one managed browser session. Fields are mutated only by the
// Manager while holding its lock; treat instances handed out by the
// Manager as read-only snapshots.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastUsedAt time.Time
	State      State
	Labels     map[string]string
}

type options struct {
	id     string
	idSet  bool
	labels map[string]string
}

// Option configures session construction.
type Option func(*options)

// WithID pins the session identifier instead of generating one.
// The identifier must be non-empty; to get a generated identifier,
// omit this option rather than passing an empty value.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
		o.idSet = true
	}
}

// WithLabels attaches free-form labels to the session. The map is copied.
func WithLabels(labels map[string]string) Option {
	return func(o *options) {
		o.labels = labels
	}
}

// New constructs a session. When WithID is omitted a UUID is generated,
// so a session is never left without an identifier.
func New(opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.idSet && o.id == "" {
		return nil, ErrEmptyID
	}
	id := o.id
	if !o.idSet {
		id = uuid.NewString()
	}

	var labels map[string]string
	if len(o.labels) > 0 {
		labels = make(map[string]string, len(o.labels))
		for k, v := range o.labels {
			labels[k] = v
		}
	}

	now := time.Now().UTC()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		LastUsedAt: now,
		State:      StateActive,
		Labels:     labels,
	}, nil
}

// IdleFor returns how long the session has gone unused as of now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastUsedAt)
}

// Snapshot is the serialized form of a session persisted between restarts.
type Snapshot struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	LastUsedAt time.Time         `json:"last_used_at"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// Snapshot captures the session's persistable state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
		Labels:     s.Labels,
	}
}

// EncodeSnapshot serializes a snapshot for the storage adapter.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a snapshot read from the storage adapter.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.ID == "" {
		return Snapshot{}, fmt.Errorf("decode snapshot: missing identifier")
	}
	return snap, nil
}

// restore rebuilds a session from its snapshot.
func restore(snap Snapshot) *Session {
	return &Session{
		ID:         snap.ID,
		CreatedAt:  snap.CreatedAt,
		LastUsedAt: snap.LastUsedAt,
		State:      StateActive,
		Labels:     snap.Labels,
	}
}
