package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"session-keeper/internal/observability/metrics"
	"session-keeper/internal/storage"
	"session-keeper/pkg/resilience"
)

var (
	// ErrSessionNotFound is returned when no session has the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when Create is given an ID that is
	// already registered.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionLimit is returned when Create would exceed MaxSessions.
	ErrSessionLimit = errors.New("session limit reached")
)

// snapshotKey returns the storage key for a session's snapshot.
func snapshotKey(id string) string {
	return "session-" + id + ".json"
}

// snapshotPattern matches every persisted snapshot key.
const snapshotPattern = "session-*.json"

// Manager owns the session registry and every session's lifecycle. Runtime
// calls go through retry executors that share one circuit breaker, so a
// runtime that is down stops both launches and navigations together.
// A nil storage adapter disables persistence; persistence failures are
// logged and never fail the operation that triggered them.
type Manager struct {
	cfg      Config
	runtime  Runtime
	store    storage.Adapter
	logger   *slog.Logger
	clock    resilience.Clock
	limiter  *rate.Limiter
	breaker  *resilience.CircuitBreaker
	launch   *resilience.Executor
	navigate *resilience.Executor

	launchTotal    atomic.Uint64
	launchFailures atomic.Uint64

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager wires a manager from its configuration. The runtime is
// required; store may be nil to run without persistence.
func NewManager(cfg Config, rt Runtime, store storage.Adapter, logger *slog.Logger) (*Manager, error) {
	if rt == nil {
		return nil, fmt.Errorf("session manager requires a runtime")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session manager config: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = &resilience.SystemClock{}
	}
	resMetrics := cfg.Metrics
	if resMetrics == nil {
		resMetrics = resilience.NewNoOpMetrics()
	}

	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "browser-runtime",
		FailureThreshold: cfg.BreakerFailureThreshold,
		ResetTimeout:     cfg.BreakerResetTimeout,
		Clock:            clock,
		Metrics:          resMetrics,
		Logger:           logger,
	})

	launch, err := resilience.NewExecutor(resilience.ExecutorConfig{
		Name:    "launch",
		Policy:  cfg.LaunchPolicy,
		Breaker: breaker,
		Logger:  logger,
		Metrics: resMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("launch executor: %w", err)
	}
	navigate, err := resilience.NewExecutor(resilience.ExecutorConfig{
		Name:    "navigate",
		Policy:  cfg.NavigatePolicy,
		Breaker: breaker,
		Logger:  logger,
		Metrics: resMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("navigate executor: %w", err)
	}

	return &Manager{
		cfg:      cfg,
		runtime:  rt,
		store:    store,
		logger:   logger,
		clock:    clock,
		limiter:  rate.NewLimiter(rate.Limit(cfg.CreateRate), cfg.CreateBurst),
		breaker:  breaker,
		launch:   launch,
		navigate: navigate,
		sessions: make(map[string]*Session),
	}, nil
}

// Create launches a new session and registers it. The call blocks on the
// creation rate limiter, then launches the runtime instance with retries
// before the session becomes visible to other callers.
func (m *Manager) Create(ctx context.Context, opts ...Option) (*Session, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()
	s.CreatedAt = now
	s.LastUsedAt = now

	if err := m.reserve(s.ID); err != nil {
		return nil, err
	}

	m.launchTotal.Add(1)
	err = m.launch.Run(ctx, func(ctx context.Context) error {
		return m.runtime.Launch(ctx, s.ID)
	})
	if err != nil {
		m.launchFailures.Add(1)
		m.release(s.ID)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			metrics.RecordSessionCreated("rejected")
		} else {
			metrics.RecordSessionCreated("failure")
		}
		return nil, fmt.Errorf("launch session %s: %w", s.ID, err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.RecordSessionCreated("success")
	metrics.UpdateSessionsActive(count)
	m.persist(ctx, s)
	m.logger.Info("session created", slog.String("session_id", s.ID))
	return s, nil
}

// reserve claims an ID slot before the launch so concurrent Creates cannot
// exceed MaxSessions or race the same explicit ID.
func (m *Manager) reserve(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionExists)
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		return fmt.Errorf("%w (max %d)", ErrSessionLimit, m.cfg.MaxSessions)
	}
	m.sessions[id] = nil
	return nil
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || s == nil {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return s, nil
}

// List returns every live session, ordered by ID.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s != nil {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Navigate drives the session's browser to the given URL with retries.
// A successful navigation refreshes the session's last-used time.
func (m *Manager) Navigate(ctx context.Context, id, url string) error {
	if _, err := m.Get(id); err != nil {
		return err
	}

	err := m.navigate.Run(ctx, func(ctx context.Context) error {
		return m.runtime.Navigate(ctx, id, url)
	})
	metrics.RecordNavigation(err == nil)
	if err != nil {
		return fmt.Errorf("navigate session %s: %w", id, err)
	}

	var snap Snapshot
	touched := false
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok && s != nil {
		s.LastUsedAt = m.clock.Now()
		snap = s.Snapshot()
		touched = true
	}
	m.mu.Unlock()
	if touched {
		m.persistSnapshot(ctx, snap)
	}
	return nil
}

// Close shuts down a session and removes it from the registry. The runtime
// close and snapshot delete are best effort; the session is gone from the
// registry regardless.
func (m *Manager) Close(ctx context.Context, id string) error {
	return m.close(ctx, id, "requested")
}

func (m *Manager) close(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s == nil {
		m.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	delete(m.sessions, id)
	s.State = StateClosed
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.RecordSessionClosed(reason, m.clock.Now().Sub(s.CreatedAt))
	metrics.UpdateSessionsActive(count)

	if err := m.runtime.Close(ctx, id); err != nil {
		m.logger.Warn("runtime close failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
	}
	m.forget(ctx, id)
	m.logger.Info("session closed", slog.String("session_id", id))
	return nil
}

// CloseAll closes every live session concurrently and returns the first
// error encountered.
func (m *Manager) CloseAll(ctx context.Context) error {
	sessions := m.List()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		id := s.ID
		g.Go(func() error {
			if err := m.close(ctx, id, "shutdown"); err != nil && !errors.Is(err, ErrSessionNotFound) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Sweep closes sessions idle longer than the configured TTL and returns
// how many were closed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.clock.Now()

	var idle []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if s != nil && s.IdleFor(now) > m.cfg.IdleTTL {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range idle {
		if err := m.close(ctx, id, "idle"); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return closed, err
		}
		closed++
	}
	if closed > 0 {
		m.logger.Info("swept idle sessions", slog.Int("closed", closed))
	}
	return closed, nil
}

// Restore relaunches sessions from persisted snapshots, typically at
// startup. Snapshots that cannot be decoded or relaunched are deleted so
// they do not wedge every subsequent restore. Returns how many sessions
// came back.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}

	keys, err := m.store.List(ctx, snapshotPattern)
	if err != nil {
		return 0, fmt.Errorf("restore sessions: %w", err)
	}

	restored := 0
	for _, key := range keys {
		data, err := m.store.Load(ctx, key)
		if err != nil {
			m.logger.Warn("failed to load snapshot",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}

		snap, err := DecodeSnapshot(data)
		if err != nil {
			m.logger.Warn("dropping undecodable snapshot",
				slog.String("key", key),
				slog.String("error", err.Error()))
			m.forget(ctx, snapshotKeyID(key))
			metrics.RecordSnapshotRestored(false)
			continue
		}

		if err := m.reserve(snap.ID); err != nil {
			m.logger.Warn("skipping snapshot",
				slog.String("session_id", snap.ID),
				slog.String("error", err.Error()))
			continue
		}

		m.launchTotal.Add(1)
		err = m.launch.Run(ctx, func(ctx context.Context) error {
			return m.runtime.Launch(ctx, snap.ID)
		})
		if err != nil {
			m.launchFailures.Add(1)
			m.release(snap.ID)
			if resilience.IsContextError(err) || errors.Is(err, resilience.ErrCircuitOpen) {
				return restored, fmt.Errorf("restore session %s: %w", snap.ID, err)
			}
			m.logger.Warn("dropping stale snapshot",
				slog.String("session_id", snap.ID),
				slog.String("error", err.Error()))
			m.forget(ctx, snap.ID)
			metrics.RecordSnapshotRestored(false)
			continue
		}

		s := restore(snap)
		m.mu.Lock()
		m.sessions[s.ID] = s
		count := len(m.sessions)
		m.mu.Unlock()
		metrics.RecordSnapshotRestored(true)
		metrics.UpdateSessionsActive(count)
		restored++
	}

	if restored > 0 {
		m.logger.Info("restored sessions", slog.Int("count", restored))
	}
	return restored, nil
}

// BreakerStats exposes the shared circuit breaker's state for health
// reporting.
func (m *Manager) BreakerStats() resilience.BreakerStats {
	return m.breaker.Stats()
}

// LaunchStats reports cumulative launch counts since the manager started.
func (m *Manager) LaunchStats() (total, failures uint64) {
	return m.launchTotal.Load(), m.launchFailures.Load()
}

// persist writes the session snapshot, logging on failure.
func (m *Manager) persist(ctx context.Context, s *Session) {
	m.persistSnapshot(ctx, s.Snapshot())
}

func (m *Manager) persistSnapshot(ctx context.Context, snap Snapshot) {
	if m.store == nil {
		return
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		m.logger.Warn("failed to encode snapshot",
			slog.String("session_id", snap.ID),
			slog.String("error", err.Error()))
		return
	}
	if err := m.store.Store(ctx, snapshotKey(snap.ID), data); err != nil {
		m.logger.Warn("failed to persist snapshot",
			slog.String("session_id", snap.ID),
			slog.String("error", err.Error()))
	}
}

// forget deletes the session's snapshot, logging on failure. A missing
// snapshot is fine.
func (m *Manager) forget(ctx context.Context, id string) {
	if m.store == nil || id == "" {
		return
	}
	if err := m.store.Delete(ctx, snapshotKey(id)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("failed to delete snapshot",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
	}
}

// snapshotKeyID recovers the session ID from a snapshot key. Returns ""
// when the key has an unexpected shape.
func snapshotKeyID(key string) string {
	const prefix, suffix = "session-", ".json"
	if len(key) <= len(prefix)+len(suffix) {
		return ""
	}
	return key[len(prefix) : len(key)-len(suffix)]
}
