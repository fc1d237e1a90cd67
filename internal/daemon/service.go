// Package daemon provides the long-running background progress monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/model"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/store"
)

// Event types.
const (
	EventSnapshot = "snapshot"
	EventXPDelta  = "xp_delta"
	EventLevelUp  = "level_up"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Options      pipeline.Options
}

// Snapshot is a compact progress state for status/event payloads.
type Snapshot struct {
	At                time.Time `json:"at"`
	Login             string    `json:"login,omitempty"`
	TotalXP           int64     `json:"total_xp"`
	Level             int       `json:"level"`
	ProgressPercent   float64   `json:"progress_percent"`
	NextMilestone     int       `json:"next_milestone"`
	CompletedProjects int       `json:"completed_projects"`
	ActivityCount     int       `json:"activity_count"`
	AuditRatio        float64   `json:"audit_ratio"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	TotalXP           int64 `json:"total_xp"`
	Level             int   `json:"level"`
	CompletedProjects int   `json:"completed_projects"`
	ActivityCount     int   `json:"activity_count"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event is emitted whenever the learner's snapshot changes.
type Event struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	RecentDays      int       `json:"recent_days"`
	Summary         Snapshot  `json:"summary"`
	Stale           bool      `json:"stale,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Poll interval bounds. Intervals below MinInterval are raised to it.
const (
	DefaultInterval = 5 * time.Minute
	MinInterval     = 30 * time.Second
)

// Interval returns the effective poll interval.
func (s *Service) Interval() time.Duration { return s.cfg.Interval }

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	fetcher pipeline.Fetcher
	cache   *store.Cache
	log     *log.Logger
	newID   func() string

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	stale       bool
	hasSnapshot bool
	snapshot    Snapshot
	seq         int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service polling f. cache may be nil; when set,
// every successful poll refreshes it and failed polls fall back to it.
func New(cfg Config, f pipeline.Fetcher, cache *store.Cache, logger *log.Logger) *Service {
	switch {
	case cfg.Interval <= 0:
		cfg.Interval = DefaultInterval
	case cfg.Interval < MinInterval:
		cfg.Interval = MinInterval
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Options.RecentDays <= 0 {
		cfg.Options.RecentDays = pipeline.DefaultRecentDays
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		cfg:       cfg,
		fetcher:   f,
		cache:     cache,
		log:       logger.WithComponent(log.ComponentDaemon),
		newID:     uuid.NewString,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval.String())

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	start := time.Now()
	dash, stale, err := s.load(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.log.Err(ctx, "poll", err)
		return
	}

	now := time.Now()
	snap := snapshotFromDashboard(dash, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.stale = stale
	s.lastError = ""

	if !prevExists {
		ev = s.newEvent(EventSnapshot, now, snap, Delta{})
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		typ := EventXPDelta
		if delta.Level > 0 {
			typ = EventLevelUp
		}
		ev = s.newEvent(typ, now, snap, delta)
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
		s.log.Info("event", log.FieldEventID, ev.ID, "type", ev.Type, "delta_xp", ev.Delta.TotalXP)
	}
	s.log.Debug("poll complete",
		log.FieldDuration, time.Since(start).Milliseconds(),
		"total_xp", snap.TotalXP,
		"published", publish,
	)
}

// newEvent must be called with s.mu held.
func (s *Service) newEvent(typ string, at time.Time, snap Snapshot, d Delta) Event {
	s.seq++
	return Event{
		ID:        s.newID(),
		Seq:       s.seq,
		Type:      typ,
		Timestamp: at,
		Snapshot:  snap,
		Delta:     d,
	}
}

func (s *Service) load(ctx context.Context) (model.Dashboard, bool, error) {
	var (
		res   *pipeline.LoadResult
		stale bool
	)
	if s.cache != nil {
		cr, err := pipeline.LoadWithCache(ctx, s.fetcher, s.cache, 0, nil)
		if err != nil {
			return model.Dashboard{}, false, err
		}
		if cr.Stale {
			s.log.Warn("serving cached records", log.FieldError, cr.FetchErr, log.FieldAge, cr.Age.String())
		}
		res, stale = &cr.LoadResult, cr.Stale
	} else {
		r, err := pipeline.Load(ctx, s.fetcher, nil)
		if err != nil {
			return model.Dashboard{}, false, err
		}
		res = r
	}
	for _, w := range res.Warnings {
		s.log.Warn("partial load", log.FieldError, w)
	}

	opts := s.cfg.Options
	opts.Now = time.Now()
	dash, err := pipeline.Aggregate(res.Input, opts)
	return dash, stale, err
}

func snapshotFromDashboard(d model.Dashboard, at time.Time) Snapshot {
	return Snapshot{
		At:                at,
		Login:             d.Profile.Login,
		TotalXP:           d.Totals.TotalXP,
		Level:             d.Totals.Level,
		ProgressPercent:   d.Totals.ProgressPercent,
		NextMilestone:     d.Totals.NextMilestone,
		CompletedProjects: d.Totals.CompletedProjectCount,
		ActivityCount:     d.Totals.ActivityCount,
		AuditRatio:        d.Audits.Ratio,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		TotalXP:           curr.TotalXP - prev.TotalXP,
		Level:             curr.Level - prev.Level,
		CompletedProjects: curr.CompletedProjects - prev.CompletedProjects,
		ActivityCount:     curr.ActivityCount - prev.ActivityCount,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Status returns the current daemon status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		RecentDays:      s.cfg.Options.RecentDays,
		Summary:         s.snapshot,
		Stale:           s.stale,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status())
}

// handleEvents returns buffered events. ?since=<seq> returns only newer ones.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}

	s.mu.RLock()
	events := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Seq > since {
			events = append(events, ev)
		}
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		ID:        s.newID(),
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.Status().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %s\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
