// Package tracking samples a porter's GPS position on a fixed interval and
// reports it to the backend when it changed enough to matter.
package tracking

import (
	"context"
	"sync"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/geo"
	"dropngo/internal/logger"
)

// Position is a GPS fix.
type Position struct {
	Lat float64
	Lng float64
}

// PositionSource yields the current device position.
type PositionSource interface {
	Position(ctx context.Context) (Position, error)
}

// Report is one location update sent to the backend.
type Report struct {
	Lat       float64                     `json:"latitude"`
	Lng       float64                     `json:"longitude"`
	Status    domain.PorterLocationStatus `json:"status"`
	BookingID string                      `json:"booking_id,omitempty"`
}

// Reporter delivers reports to the backend.
type Reporter interface {
	Report(ctx context.Context, r Report) error
}

// Config controls when the tracker reports.
type Config struct {
	// Interval between position samples.
	Interval time.Duration
	// MinDistanceM is the movement that triggers a report.
	MinDistanceM float64
	// Heartbeat forces a report when nothing was sent for this long.
	// Zero disables heartbeats.
	Heartbeat time.Duration
}

// Tracker samples a PositionSource and reports through a Reporter on the
// first fix, after moving at least MinDistanceM, or when the heartbeat
// elapses. Report errors are logged and retried on the next sample.
type Tracker struct {
	source   PositionSource
	reporter Reporter
	cfg      Config
	log      logger.ILogger
	now      func() time.Time

	mu         sync.Mutex
	status     domain.PorterLocationStatus
	bookingID  string
	last       *Position
	lastReport time.Time
}

// NewTracker creates a Tracker reporting status "available".
func NewTracker(source PositionSource, reporter Reporter, cfg Config, log logger.ILogger) *Tracker {
	return &Tracker{
		source:   source,
		reporter: reporter,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		status:   domain.PorterAvailable,
	}
}

// SetStatus changes the status and booking sent with following reports.
// A status change is reported on the next sample.
func (t *Tracker) SetStatus(status domain.PorterLocationStatus, bookingID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status != t.status || bookingID != t.bookingID {
		t.status = status
		t.bookingID = bookingID
		t.last = nil
	}
}

// Run samples immediately and then every Interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	t.log.Info("tracker started",
		logger.Duration("interval", t.cfg.Interval),
		logger.Float64("min_distance_m", t.cfg.MinDistanceM),
	)

	t.Tick(ctx)

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.Info("tracker stopped")
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick takes one sample and reports it if needed. It returns true when a
// report was delivered.
func (t *Tracker) Tick(ctx context.Context) bool {
	pos, err := t.source.Position(ctx)
	if err != nil {
		t.log.Warning("position unavailable", logger.Error(err))
		return false
	}
	if !geo.ValidLatitude(pos.Lat) || !geo.ValidLongitude(pos.Lng) {
		t.log.Warning("invalid position", logger.Float64("lat", pos.Lat), logger.Float64("lng", pos.Lng))
		return false
	}

	now := t.now()

	t.mu.Lock()
	report := t.shouldReport(pos, now)
	r := Report{Lat: pos.Lat, Lng: pos.Lng, Status: t.status, BookingID: t.bookingID}
	t.mu.Unlock()

	if !report {
		return false
	}

	if err := t.reporter.Report(ctx, r); err != nil {
		t.log.Warning("location report failed", logger.Error(err))
		return false
	}

	t.mu.Lock()
	t.last = &pos
	t.lastReport = now
	t.mu.Unlock()

	t.log.Debug("location reported", logger.Float64("lat", pos.Lat), logger.Float64("lng", pos.Lng))
	return true
}

// shouldReport must be called with mu held.
func (t *Tracker) shouldReport(pos Position, now time.Time) bool {
	if t.last == nil {
		return true
	}
	if geo.DistanceM(t.last.Lat, t.last.Lng, pos.Lat, pos.Lng) >= t.cfg.MinDistanceM {
		return true
	}
	return t.cfg.Heartbeat > 0 && now.Sub(t.lastReport) >= t.cfg.Heartbeat
}
