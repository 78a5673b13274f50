package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"dropngo/internal/geo"
)

// SimulatedRoute moves along a polyline of waypoints at a constant speed,
// reversing at each end.
type SimulatedRoute struct {
	points   []Position
	segments []float64 // segment lengths in meters
	total    float64
	speedMps float64
	start    time.Time
	now      func() time.Time
}

// NewSimulatedRoute creates a route starting now. It needs at least one waypoint.
func NewSimulatedRoute(points []Position, speedMps float64) (*SimulatedRoute, error) {
	if len(points) == 0 {
		return nil, errors.New("route needs at least one waypoint")
	}
	r := &SimulatedRoute{
		points:   points,
		speedMps: speedMps,
		now:      time.Now,
	}
	for i := 1; i < len(points); i++ {
		d := geo.DistanceM(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
		r.segments = append(r.segments, d)
		r.total += d
	}
	r.start = r.now()
	return r, nil
}

// Position returns the point reached after the elapsed time.
func (r *SimulatedRoute) Position(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if r.total == 0 || r.speedMps <= 0 {
		return r.points[0], nil
	}

	travelled := r.now().Sub(r.start).Seconds() * r.speedMps
	lap := int(travelled / r.total)
	offset := travelled - float64(lap)*r.total
	if lap%2 == 1 {
		offset = r.total - offset
	}
	return r.at(offset), nil
}

func (r *SimulatedRoute) at(offset float64) Position {
	for i, seg := range r.segments {
		if offset <= seg {
			f := 0.0
			if seg > 0 {
				f = offset / seg
			}
			lat, lng := geo.Interpolate(r.points[i].Lat, r.points[i].Lng, r.points[i+1].Lat, r.points[i+1].Lng, f)
			return Position{Lat: lat, Lng: lng}
		}
		offset -= seg
	}
	return r.points[len(r.points)-1]
}

// ParseWaypoints parses "lat,lng;lat,lng;..." into positions.
func ParseWaypoints(s string) ([]Position, error) {
	var points []Position
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("waypoint %q: want lat,lng", pair)
		}
		lat, err := cast.ToFloat64E(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("waypoint %q: %w", pair, err)
		}
		lng, err := cast.ToFloat64E(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("waypoint %q: %w", pair, err)
		}
		if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
			return nil, fmt.Errorf("waypoint %q: out of range", pair)
		}
		points = append(points, Position{Lat: lat, Lng: lng})
	}
	if len(points) == 0 {
		return nil, errors.New("route needs at least one waypoint")
	}
	return points, nil
}
