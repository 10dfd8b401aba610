package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_GeneratesID(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = uuid.Parse(s.ID)
	assert.NoError(t, err, "generated ID should be a UUID")
	assert.Equal(t, StateActive, s.State)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, s.CreatedAt, s.LastUsedAt)
}

func TestNew_GeneratedIDsAreUnique(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestNew_WithID(t *testing.T) {
	s, err := New(WithID("worker-7"))
	require.NoError(t, err)
	assert.Equal(t, "worker-7", s.ID)
}

func TestNew_WithEmptyID(t *testing.T) {
	_, err := New(WithID(""))
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestNew_WithLabelsCopies(t *testing.T) {
	labels := map[string]string{"team": "crawler"}
	s, err := New(WithLabels(labels))
	require.NoError(t, err)

	labels["team"] = "mutated"
	assert.Equal(t, "crawler", s.Labels["team"])
}

func TestSession_IdleFor(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	now := s.LastUsedAt.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, s.IdleFor(now))
}

func TestSnapshot_Roundtrip(t *testing.T) {
	s, err := New(WithID("roundtrip"), WithLabels(map[string]string{"env": "test"}))
	require.NoError(t, err)

	data, err := EncodeSnapshot(s.Snapshot())
	require.NoError(t, err)

	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, snap.ID)
	assert.True(t, s.CreatedAt.Equal(snap.CreatedAt))
	assert.True(t, s.LastUsedAt.Equal(snap.LastUsedAt))
	assert.Equal(t, s.Labels, snap.Labels)
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not json"))
	assert.Error(t, err)
}

func TestDecodeSnapshot_MissingID(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"created_at":"2026-01-01T00:00:00Z"}`))
	assert.Error(t, err)
}
