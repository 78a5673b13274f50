package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
)

// ────────────────────────────────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────────────────────────────────

type fakeSource struct {
	mu  sync.Mutex
	pos Position
	err error
}

func (s *fakeSource) Position(ctx context.Context) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.err
}

func (s *fakeSource) set(lat, lng float64) {
	s.mu.Lock()
	s.pos = Position{Lat: lat, Lng: lng}
	s.mu.Unlock()
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

func (r *fakeReporter) Report(ctx context.Context, rep Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.reports = append(r.reports, rep)
	return nil
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestTracker(cfg Config) (*Tracker, *fakeSource, *fakeReporter, *fakeClock) {
	src := &fakeSource{pos: Position{Lat: 12.9716, Lng: 77.5946}}
	rep := &fakeReporter{}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	tr := NewTracker(src, rep, cfg, logger.Nop())
	tr.now = clock.now
	return tr, src, rep, clock
}

var defaultConfig = Config{
	Interval:     10 * time.Second,
	MinDistanceM: 10,
	Heartbeat:    time.Minute,
}

// ────────────────────────────────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────────────────────────────────

func TestTracker_ReportsFirstFix(t *testing.T) {
	t.Parallel()

	tr, _, rep, _ := newTestTracker(defaultConfig)

	if !tr.Tick(context.Background()) {
		t.Fatal("expected first fix to be reported")
	}
	if rep.count() != 1 {
		t.Fatalf("expected 1 report, got %d", rep.count())
	}
	if rep.reports[0].Status != domain.PorterAvailable {
		t.Errorf("expected status available, got %s", rep.reports[0].Status)
	}
}

func TestTracker_MovementThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		deltaLat   float64
		wantReport bool
	}{
		{"stationary", 0, false},
		{"about 5.5 m", 0.00005, false},
		{"about 11 m", 0.0001, true},
		{"about 111 m", 0.001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, src, rep, clock := newTestTracker(defaultConfig)
			tr.Tick(context.Background())

			clock.advance(10 * time.Second)
			src.set(12.9716+tt.deltaLat, 77.5946)

			got := tr.Tick(context.Background())
			if got != tt.wantReport {
				t.Errorf("Tick() = %v, want %v", got, tt.wantReport)
			}
			want := 1
			if tt.wantReport {
				want = 2
			}
			if rep.count() != want {
				t.Errorf("expected %d reports, got %d", want, rep.count())
			}
		})
	}
}

func TestTracker_Heartbeat(t *testing.T) {
	t.Parallel()

	tr, _, rep, clock := newTestTracker(defaultConfig)
	tr.Tick(context.Background())

	clock.advance(50 * time.Second)
	if tr.Tick(context.Background()) {
		t.Error("did not expect a report before the heartbeat")
	}

	clock.advance(10 * time.Second)
	if !tr.Tick(context.Background()) {
		t.Error("expected heartbeat report")
	}
	if rep.count() != 2 {
		t.Errorf("expected 2 reports, got %d", rep.count())
	}
}

func TestTracker_HeartbeatDisabled(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig
	cfg.Heartbeat = 0
	tr, _, rep, clock := newTestTracker(cfg)
	tr.Tick(context.Background())

	clock.advance(time.Hour)
	tr.Tick(context.Background())

	if rep.count() != 1 {
		t.Errorf("expected 1 report, got %d", rep.count())
	}
}

func TestTracker_ReportErrorRetriesNextTick(t *testing.T) {
	t.Parallel()

	tr, _, rep, clock := newTestTracker(defaultConfig)
	rep.err = errors.New("network down")

	if tr.Tick(context.Background()) {
		t.Fatal("expected failed report")
	}

	rep.mu.Lock()
	rep.err = nil
	rep.mu.Unlock()
	clock.advance(10 * time.Second)

	if !tr.Tick(context.Background()) {
		t.Error("expected the unreported fix to be retried")
	}
}

func TestTracker_SourceErrorSkipsReport(t *testing.T) {
	t.Parallel()

	tr, src, rep, _ := newTestTracker(defaultConfig)
	src.err = errors.New("no gps")

	if tr.Tick(context.Background()) {
		t.Error("expected no report without a position")
	}
	if rep.count() != 0 {
		t.Errorf("expected 0 reports, got %d", rep.count())
	}
}

func TestTracker_StatusChangeForcesReport(t *testing.T) {
	t.Parallel()

	tr, _, rep, clock := newTestTracker(defaultConfig)
	tr.Tick(context.Background())

	tr.SetStatus(domain.PorterInTransit, "booking-1")
	clock.advance(10 * time.Second)

	if !tr.Tick(context.Background()) {
		t.Fatal("expected report after status change")
	}
	last := rep.reports[len(rep.reports)-1]
	if last.Status != domain.PorterInTransit || last.BookingID != "booking-1" {
		t.Errorf("unexpected report %+v", last)
	}
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	tr, _, rep, _ := newTestTracker(Config{Interval: time.Millisecond, MinDistanceM: 10})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if rep.count() != 1 {
		t.Errorf("expected only the first fix to be reported, got %d", rep.count())
	}
}
