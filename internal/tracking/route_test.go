package tracking

import (
	"context"
	"math"
	"testing"
	"time"

	"dropngo/internal/geo"
)

func TestSimulatedRoute_Position(t *testing.T) {
	t.Parallel()

	points := []Position{{Lat: 0, Lng: 0}, {Lat: 0.01, Lng: 0}}
	route, err := NewSimulatedRoute(points, 10)
	if err != nil {
		t.Fatalf("NewSimulatedRoute: %v", err)
	}
	length := geo.DistanceM(0, 0, 0.01, 0)

	start := route.start
	tests := []struct {
		name    string
		elapsed time.Duration
		wantLat float64
	}{
		{"start", 0, 0},
		{"halfway", time.Duration(length/2/10*float64(time.Second)), 0.005},
		{"end", time.Duration(length / 10 * float64(time.Second)), 0.01},
		{"back to halfway", time.Duration(length * 1.5 / 10 * float64(time.Second)), 0.005},
	}

	for _, tt := range tests {
		route.now = func() time.Time { return start.Add(tt.elapsed) }
		pos, err := route.Position(context.Background())
		if err != nil {
			t.Fatalf("%s: Position: %v", tt.name, err)
		}
		if math.Abs(pos.Lat-tt.wantLat) > 1e-6 {
			t.Errorf("%s: lat = %v, want %v", tt.name, pos.Lat, tt.wantLat)
		}
	}
}

func TestSimulatedRoute_SinglePoint(t *testing.T) {
	t.Parallel()

	route, err := NewSimulatedRoute([]Position{{Lat: 1, Lng: 2}}, 10)
	if err != nil {
		t.Fatalf("NewSimulatedRoute: %v", err)
	}
	pos, err := route.Position(context.Background())
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos.Lat != 1 || pos.Lng != 2 {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestSimulatedRoute_RequiresWaypoint(t *testing.T) {
	t.Parallel()

	if _, err := NewSimulatedRoute(nil, 10); err == nil {
		t.Error("expected error for empty route")
	}
}

func TestParseWaypoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"single", "12.97,77.59", 1, false},
		{"several with spaces", " 12.97, 77.59 ; 12.93,77.62;", 2, false},
		{"empty", "", 0, true},
		{"missing lng", "12.97", 0, true},
		{"not a number", "abc,77.59", 0, true},
		{"out of range", "91,0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWaypoints(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d waypoints, want %d", len(got), tt.want)
			}
		})
	}
}
