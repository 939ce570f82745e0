package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiforesti/searchhub/internal/search"
)

// blockingSearcher simulates an engine whose dispatch waits on the
// context, the way a real fan-out does.
type blockingSearcher struct {
	mu       sync.Mutex
	calls    int32
	started  chan string // receives query text when a search begins
	release  chan struct{}
	lastText string
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (s *blockingSearcher) Search(ctx context.Context, q search.Query, caller search.Caller) (*search.Response, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	s.lastText = q.Text
	s.mu.Unlock()
	s.started <- q.Text

	select {
	case <-ctx.Done():
		return &search.Response{Status: search.SessionSuperseded}, nil
	case <-s.release:
		return &search.Response{Status: search.SessionComplete, Total: 1}, nil
	}
}

func TestManager_NewQuerySupersedesInFlight(t *testing.T) {
	engine := newBlockingSearcher()
	m := NewManager(engine)
	caller := search.Caller{ID: "u1"}

	type result struct {
		resp *search.Response
		err  error
	}
	firstDone := make(chan result, 1)

	// "cust" starts dispatching and blocks.
	go func() {
		resp, err := m.Search(context.Background(), search.Query{Text: "cust"}, caller)
		firstDone <- result{resp, err}
	}()
	require.Equal(t, "cust", <-engine.started)

	// "customer" from the same caller supersedes it.
	secondDone := make(chan result, 1)
	go func() {
		resp, err := m.Search(context.Background(), search.Query{Text: "customer"}, caller)
		secondDone <- result{resp, err}
	}()
	require.Equal(t, "customer", <-engine.started)

	// First search returns superseded without waiting for its sources.
	first := <-firstDone
	require.NoError(t, first.err)
	assert.Equal(t, search.SessionSuperseded, first.resp.Status)

	// Second completes normally once its dispatch finishes.
	close(engine.release)
	second := <-secondDone
	require.NoError(t, second.err)
	assert.Equal(t, search.SessionComplete, second.resp.Status)
	assert.Equal(t, 1, second.resp.Total)
}

func TestManager_SessionTableClearedAfterCompletion(t *testing.T) {
	engine := newBlockingSearcher()
	close(engine.release)
	m := NewManager(engine)

	_, err := m.Search(context.Background(), search.Query{Text: "q"}, search.Caller{ID: "u1"})
	require.NoError(t, err)

	_, ok := m.Active("u1")
	assert.False(t, ok)
}

func TestManager_DifferentCallersDoNotSupersedeEachOther(t *testing.T) {
	engine := newBlockingSearcher()
	m := NewManager(engine)

	done := make(chan *search.Response, 2)
	for _, id := range []string{"u1", "u2"} {
		go func(id string) {
			// Distinct queries so the flights do not coalesce.
			resp, err := m.Search(context.Background(), search.Query{Text: "q-" + id}, search.Caller{ID: id})
			require.NoError(t, err)
			done <- resp
		}(id)
	}
	<-engine.started
	<-engine.started

	close(engine.release)
	for i := 0; i < 2; i++ {
		resp := <-done
		assert.Equal(t, search.SessionComplete, resp.Status)
	}
}

// countingSearcher completes immediately after a short delay, counting
// invocations, so coalescing is observable.
type countingSearcher struct {
	calls int32
	delay time.Duration
}

func (s *countingSearcher) Search(ctx context.Context, q search.Query, caller search.Caller) (*search.Response, error) {
	atomic.AddInt32(&s.calls, 1)
	select {
	case <-ctx.Done():
		return &search.Response{Status: search.SessionSuperseded}, nil
	case <-time.After(s.delay):
		return &search.Response{Status: search.SessionComplete, Total: 7}, nil
	}
}

func TestManager_EquivalentConcurrentQueriesCoalesce(t *testing.T) {
	engine := &countingSearcher{delay: 100 * time.Millisecond}
	m := NewManager(engine)

	q := search.Query{Text: "customer", Filters: map[string][]string{"category": {"table"}}}

	var wg sync.WaitGroup
	responses := make([]*search.Response, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := search.Caller{ID: "caller-" + string(rune('a'+i))}
			resp, err := m.Search(context.Background(), q, caller)
			require.NoError(t, err)
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	// All callers got the shared answer from far fewer dispatches.
	for _, resp := range responses {
		require.NotNil(t, resp)
		assert.Equal(t, 7, resp.Total)
	}
	assert.Less(t, atomic.LoadInt32(&engine.calls), int32(4))
}

func TestManager_FollowerRerunsWhenLeaderSuperseded(t *testing.T) {
	engine := &countingSearcher{delay: 150 * time.Millisecond}
	m := NewManager(engine)
	q := search.Query{Text: "customer"}

	leaderDone := make(chan *search.Response, 1)
	go func() {
		resp, err := m.Search(context.Background(), q, search.Caller{ID: "leader"})
		require.NoError(t, err)
		leaderDone <- resp
	}()
	time.Sleep(20 * time.Millisecond)

	followerDone := make(chan *search.Response, 1)
	go func() {
		resp, err := m.Search(context.Background(), q, search.Caller{ID: "follower"})
		require.NoError(t, err)
		followerDone <- resp
	}()
	time.Sleep(20 * time.Millisecond)

	// Supersede the leader's session; the follower's must survive.
	go func() {
		_, err := m.Search(context.Background(), search.Query{Text: "different"}, search.Caller{ID: "leader"})
		require.NoError(t, err)
	}()

	assert.Equal(t, search.SessionSuperseded, (<-leaderDone).Status)
	assert.Equal(t, search.SessionComplete, (<-followerDone).Status)
}

// capSearcher answers with a gated result only when the caller holds
// the capability, and records which caller each dispatch ran as.
type capSearcher struct {
	mu      sync.Mutex
	ranAs   []string
	started chan string
	release chan struct{}
}

func newCapSearcher() *capSearcher {
	return &capSearcher{
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (s *capSearcher) Search(ctx context.Context, q search.Query, caller search.Caller) (*search.Response, error) {
	s.mu.Lock()
	s.ranAs = append(s.ranAs, caller.ID)
	s.mu.Unlock()
	s.started <- caller.ID

	select {
	case <-ctx.Done():
		return &search.Response{Status: search.SessionSuperseded}, nil
	case <-s.release:
	}

	results := []*search.NormalizedResult{{ID: "public/doc-1", SourceID: "public"}}
	if caller.Capabilities["secrets.read"] {
		results = append(results, &search.NormalizedResult{ID: "secrets/doc-1", SourceID: "secrets"})
	}
	return &search.Response{Status: search.SessionComplete, Results: results, Total: len(results)}, nil
}

// Queries only coalesce between callers whose capability sets admit the
// same sources. A caller without a gated source's capability must never
// receive that source's results through a flight a privileged caller
// started.
func TestManager_CoalescingRespectsCapabilities(t *testing.T) {
	engine := newCapSearcher()
	m := NewManager(engine)
	q := search.Query{Text: "quarterly report"}

	privileged := search.Caller{ID: "alice", Capabilities: map[string]bool{"secrets.read": true}}
	restricted := search.Caller{ID: "bob"}

	aliceDone := make(chan *search.Response, 1)
	go func() {
		resp, err := m.Search(context.Background(), q, privileged)
		require.NoError(t, err)
		aliceDone <- resp
	}()
	require.Equal(t, "alice", <-engine.started)

	bobDone := make(chan *search.Response, 1)
	go func() {
		resp, err := m.Search(context.Background(), q, restricted)
		require.NoError(t, err)
		bobDone <- resp
	}()
	// Bob's capability set differs, so his dispatch runs separately.
	require.Equal(t, "bob", <-engine.started)

	close(engine.release)

	aliceResp := <-aliceDone
	bobResp := <-bobDone

	assert.Equal(t, 2, aliceResp.Total)
	require.Equal(t, 1, bobResp.Total)
	for _, res := range bobResp.Results {
		assert.NotEqual(t, "secrets/doc-1", res.ID)
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.ElementsMatch(t, []string{"alice", "bob"}, engine.ranAs)
}

func TestManager_SameCapabilitiesStillCoalesce(t *testing.T) {
	engine := &countingSearcher{delay: 100 * time.Millisecond}
	m := NewManager(engine)
	q := search.Query{Text: "customer"}
	caps := map[string]bool{"compliance.read": true}

	var wg sync.WaitGroup
	for _, id := range []string{"u1", "u2", "u3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			resp, err := m.Search(context.Background(), q, search.Caller{ID: id, Capabilities: caps})
			require.NoError(t, err)
			assert.Equal(t, 7, resp.Total)
		}(id)
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&engine.calls), int32(3))
}

// A session superseded mid-flight stays superseded even if its own
// completion path runs afterwards.
func TestManager_SupersededStateSticks(t *testing.T) {
	m := NewManager(&countingSearcher{})
	sess := &Session{ID: "s1", CallerID: "u1", State: StateDispatching, cancel: func() {}}

	m.setState(sess, StateSuperseded)
	m.setState(sess, StateCompleted)
	assert.Equal(t, StateSuperseded, sess.State)

	m.setState(sess, StateFailed)
	assert.Equal(t, StateFailed, sess.State)
}

// Completion and supersession transitions run concurrently for the same
// caller; every state write must go through the manager mutex.
func TestManager_ConcurrentSupersedeAndComplete(t *testing.T) {
	engine := &countingSearcher{delay: time.Millisecond}
	m := NewManager(engine)
	caller := search.Caller{ID: "u1"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := search.Query{Text: "q", Offset: i} // distinct flights
			_, err := m.Search(context.Background(), q, caller)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	_, ok := m.Active("u1")
	assert.False(t, ok)
}

func TestManager_Cancel(t *testing.T) {
	engine := newBlockingSearcher()
	m := NewManager(engine)

	done := make(chan *search.Response, 1)
	go func() {
		resp, err := m.Search(context.Background(), search.Query{Text: "q"}, search.Caller{ID: "u1"})
		require.NoError(t, err)
		done <- resp
	}()
	<-engine.started

	assert.True(t, m.Cancel("u1"))
	assert.Equal(t, search.SessionSuperseded, (<-done).Status)
	assert.False(t, m.Cancel("u1"))
}
