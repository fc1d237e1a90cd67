package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/source"
	"github.com/theirongolddev/xpdash/internal/store"
)

type stubFetcher struct {
	mu    sync.Mutex
	total int64
	err   error
}

func (f *stubFetcher) set(total int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total, f.err = total, err
}

func (f *stubFetcher) CurrentUser(context.Context) (source.RawProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return source.RawProfile{}, f.err
	}
	return source.RawProfile{ID: 1, Login: "jdoe"}, nil
}

func (f *stubFetcher) FetchProfile(_ context.Context, id int) (source.RawProfile, error) {
	return source.RawProfile{ID: id, Login: "jdoe"}, nil
}

func (f *stubFetcher) FetchTotalXP(context.Context, int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total, nil
}

func (f *stubFetcher) FetchTransactions(context.Context, int) ([]source.RawTransaction, error) {
	return []source.RawTransaction{
		{Amount: 1500, CreatedAt: "2024-02-01T10:00:00Z", Object: &source.RawObject{Name: "go-reloaded"}},
	}, nil
}

func (f *stubFetcher) FetchProgress(context.Context, int) ([]source.RawProgress, error) {
	g := 1.0
	return []source.RawProgress{
		{Grade: &g, UpdatedAt: "2024-02-01T10:00:00Z", Object: &source.RawObject{Name: "go-reloaded"}},
	}, nil
}

func (f *stubFetcher) FetchResults(context.Context, int) ([]source.RawResult, error) {
	return []source.RawResult{}, nil
}

func newTestService(t *testing.T, f *stubFetcher, cache *store.Cache) *Service {
	t.Helper()
	s := New(Config{EventsBuffer: 10}, f, cache, log.Discard())
	n := 0
	s.newID = func() string {
		n++
		return "ev-" + string(rune('0'+n))
	}
	return s
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{TotalXP: 1500, Level: 1, CompletedProjects: 3, ActivityCount: 10}
	curr := Snapshot{TotalXP: 2600, Level: 2, CompletedProjects: 4, ActivityCount: 12}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, Delta{TotalXP: 1100, Level: 1, CompletedProjects: 1, ActivityCount: 2}, delta)
	assert.False(t, delta.isZero())
	assert.True(t, diffSnapshots(curr, curr).isZero())
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second}, &stubFetcher{}, nil, nil)
	assert.Equal(t, MinInterval, s.Interval(), "short intervals are raised to the floor")
	assert.Equal(t, DefaultInterval, New(Config{}, &stubFetcher{}, nil, nil).Interval())
	assert.Equal(t, 45*time.Second, New(Config{Interval: 45 * time.Second}, &stubFetcher{}, nil, nil).Interval())
	assert.Equal(t, 200, s.cfg.EventsBuffer)
	assert.Equal(t, "127.0.0.1:8787", s.cfg.Addr)
	assert.Positive(t, s.cfg.Options.RecentDays)
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, &stubFetcher{}, nil, log.Discard())

	s.publishEvent(Event{Seq: 1})
	s.publishEvent(Event{Seq: 2})
	s.publishEvent(Event{Seq: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].Seq)
	assert.Equal(t, int64(3), s.events[1].Seq)
}

func TestPollOnce_EventSequence(t *testing.T) {
	f := &stubFetcher{total: 1500}
	s := newTestService(t, f, nil)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged: no event
	f.set(2500, nil)
	s.pollOnce(ctx)
	f.set(2600, nil)
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 3)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, "jdoe", events[0].Snapshot.Login)
	assert.Equal(t, int64(1500), events[0].Snapshot.TotalXP)
	assert.Equal(t, EventLevelUp, events[1].Type)
	assert.Equal(t, 1, events[1].Delta.Level)
	assert.Equal(t, int64(1000), events[1].Delta.TotalXP)
	assert.Equal(t, EventXPDelta, events[2].Type)
	assert.Equal(t, int64(100), events[2].Delta.TotalXP)
	assert.Equal(t, []int64{1, 2, 3}, []int64{events[0].Seq, events[1].Seq, events[2].Seq})
	assert.NotEqual(t, events[0].ID, events[1].ID)

	st := s.Status()
	assert.Equal(t, int64(4), st.PollCount)
	assert.Equal(t, 3, st.EventCount)
	assert.Equal(t, 2, st.Summary.Level)
	assert.Empty(t, st.LastError)
}

func TestPollOnce_ErrorKeepsLastSnapshot(t *testing.T) {
	f := &stubFetcher{total: 1500}
	s := newTestService(t, f, nil)

	s.pollOnce(context.Background())
	f.set(0, errors.New("platform down"))
	s.pollOnce(context.Background())

	st := s.Status()
	assert.Contains(t, st.LastError, "platform down")
	assert.Equal(t, int64(1500), st.Summary.TotalXP)
	assert.Equal(t, int64(2), st.PollCount)
}

func TestPollOnce_CacheFallbackIsStale(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	f := &stubFetcher{total: 1500}
	s := newTestService(t, f, cache)

	s.pollOnce(context.Background())
	assert.False(t, s.Status().Stale)

	f.set(0, errors.New("platform down"))
	s.pollOnce(context.Background())

	st := s.Status()
	assert.True(t, st.Stale)
	assert.Empty(t, st.LastError)
	assert.Equal(t, int64(1500), st.Summary.TotalXP)
}

func TestHandlers(t *testing.T) {
	f := &stubFetcher{total: 1500}
	s := newTestService(t, f, nil)
	s.pollOnce(context.Background())
	f.set(2500, nil)
	s.pollOnce(context.Background())

	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, int64(2500), st.Summary.TotalXP)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events?since=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var events []Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, EventLevelUp, events[0].Type)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events?since=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStream_SendsCurrentSnapshot(t *testing.T) {
	s := newTestService(t, &stubFetcher{total: 1500}, nil)
	s.pollOnce(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		s.handleStream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return s.Status().SubscriberCount == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: "))
	assert.Contains(t, body, "event: snapshot\n")
	assert.Contains(t, body, `"total_xp":1500`)
	assert.Equal(t, 0, s.Status().SubscriberCount)
}
