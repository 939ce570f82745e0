// Package session tracks one live query session per caller. A new query
// from a caller supersedes and cancels their previous in-flight one, and
// identical concurrent queries from different callers share a single
// dispatch.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/seiforesti/searchhub/internal/search"
)

// Searcher is the engine surface the manager drives.
type Searcher interface {
	Search(ctx context.Context, q search.Query, caller search.Caller) (*search.Response, error)
}

// State labels a session's lifecycle phase.
type State string

const (
	StateDispatching State = "dispatching"
	StateCompleted   State = "completed"
	StateSuperseded  State = "superseded"
	StateFailed      State = "failed"
)

// Session is one tracked query execution.
type Session struct {
	ID       string
	CallerID string
	Query    search.Query
	State    State
	Started  time.Time

	cancel context.CancelFunc
}

// Manager owns the session table and request coalescing.
type Manager struct {
	engine Searcher

	mu      sync.Mutex
	active  map[string]*Session // caller id -> in-flight session
	flights singleflight.Group
}

// NewManager creates a session manager over a search engine.
func NewManager(engine Searcher) *Manager {
	return &Manager{
		engine: engine,
		active: make(map[string]*Session),
	}
}

// Search runs a query as a tracked session. Any in-flight session for
// the same caller is cancelled first; its response comes back marked
// superseded. Concurrent equivalent queries from different callers
// coalesce onto one dispatch and each receive the shared response.
func (m *Manager) Search(ctx context.Context, q search.Query, caller search.Caller) (*search.Response, error) {
	sessCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		ID:       uuid.NewString(),
		CallerID: caller.ID,
		Query:    q,
		State:    StateDispatching,
		Started:  time.Now(),
		cancel:   cancel,
	}

	m.mu.Lock()
	if prev, ok := m.active[caller.ID]; ok {
		prev.State = StateSuperseded
		prev.cancel()
		slog.Debug("session superseded",
			slog.String("caller", caller.ID),
			slog.String("session", prev.ID))
	}
	m.active[caller.ID] = sess
	m.mu.Unlock()

	defer m.finish(sess)

	resp, err := m.coalesced(sessCtx, q, caller)
	switch {
	case err != nil:
		m.setState(sess, StateFailed)
		return nil, err
	case resp.Status == search.SessionSuperseded:
		m.setState(sess, StateSuperseded)
	default:
		m.setState(sess, StateCompleted)
	}
	return resp, nil
}

// setState is the single mutation point for session state, so a
// completion and a supersession of the same session never race.
// A session that was already superseded stays superseded.
func (m *Manager) setState(sess *Session, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess.State == StateSuperseded && s == StateCompleted {
		return
	}
	sess.State = s
}

// coalesced shares one dispatch between equivalent concurrent queries.
// The key covers everything that shapes the response: the query
// fingerprint, sort, paging, and the caller's capability set. The
// capability fingerprint keeps callers with different source access
// apart; a shared response must never carry results from a source one
// of the coalesced callers could not have queried.
func (m *Manager) coalesced(ctx context.Context, q search.Query, caller search.Caller) (*search.Response, error) {
	key := q.Fingerprint() + ":" + caller.CapabilityFingerprint() +
		":" + string(q.SortMode) + ":" + pagingKey(q)

	v, err, shared := m.flights.Do(key, func() (interface{}, error) {
		return m.engine.Search(ctx, q, caller)
	})

	// The leader's cancellation must not doom followers whose own
	// sessions are still live: rerun for ourselves in that case.
	if followerHit(ctx, err, v) {
		slog.Debug("coalesced leader cancelled, rerunning",
			slog.String("caller", caller.ID))
		return m.engine.Search(ctx, q, caller)
	}
	if err != nil {
		return nil, err
	}

	resp := v.(*search.Response)
	if shared {
		slog.Debug("search coalesced", slog.String("caller", caller.ID))
	}
	return resp, nil
}

// followerHit reports whether a shared flight died with the leader while
// our own session is still uncancelled.
func followerHit(ctx context.Context, err error, v interface{}) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if resp, ok := v.(*search.Response); ok && resp != nil {
		return resp.Status == search.SessionSuperseded
	}
	return false
}

func (m *Manager) finish(sess *Session) {
	sess.cancel()
	m.mu.Lock()
	if m.active[sess.CallerID] == sess {
		delete(m.active, sess.CallerID)
	}
	m.mu.Unlock()
}

// Active returns the caller's in-flight session, if any.
func (m *Manager) Active(callerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[callerID]
	return s, ok
}

// Cancel aborts the caller's in-flight session. It reports whether one
// was found.
func (m *Manager) Cancel(callerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[callerID]
	if !ok {
		return false
	}
	s.State = StateSuperseded
	s.cancel()
	return true
}

func pagingKey(q search.Query) string {
	return strconv.Itoa(q.Offset) + "/" + strconv.Itoa(q.Limit)
}
