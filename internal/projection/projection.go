// Package projection projects WGS84 geodetic coordinates onto EPSG grids.
package projection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wroge/wgs84"
)

// DefaultTimeout bounds a single projection call.
const DefaultTimeout = 2 * time.Second

// ErrUnavailable is returned when a projection cannot be computed.
var ErrUnavailable = errors.New("projection unavailable")

var registry = wgs84.EPSG()

// WGS84Projector converts WGS84 latitude/longitude to eastings/northings of
// a target EPSG coordinate reference system.
type WGS84Projector struct {
	Timeout time.Duration
}

// NewWGS84Projector returns a projector with the given call timeout.
func NewWGS84Projector(timeout time.Duration) *WGS84Projector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WGS84Projector{Timeout: timeout}
}

type projected struct {
	err               error
	easting, northing float64
}

// ProjectGeodeticToPlanar projects lat/lon (EPSG:4326) onto the target EPSG grid.
func (p *WGS84Projector) ProjectGeodeticToPlanar(ctx context.Context, lat, lon float64, epsg int) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan projected, 1)
	go func() {
		e, n, err := project(lat, lon, epsg)
		done <- projected{easting: e, northing: n, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%w: EPSG:%d: %w", ErrUnavailable, epsg, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return 0, 0, r.err
		}
		log.Trace().
			Int("epsg", epsg).
			Float64("lat", lat).
			Float64("lon", lon).
			Float64("eastings", r.easting).
			Float64("northings", r.northing).
			Msg("Projected geodetic coordinates")
		return r.easting, r.northing, nil
	}
}

// project runs the transform; the registry panics on codes it cannot build.
func project(lat, lon float64, epsg int) (e, n float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: EPSG:%d: %v", ErrUnavailable, epsg, r)
		}
	}()

	transform := wgs84.Transform(wgs84.WGS84().LonLat(), registry.Code(epsg))
	e, n, _ = transform(lon, lat, 0)

	if math.IsNaN(e) || math.IsNaN(n) || math.IsInf(e, 0) || math.IsInf(n, 0) {
		return 0, 0, fmt.Errorf("%w: EPSG:%d: no finite result for %v,%v", ErrUnavailable, epsg, lat, lon)
	}

	return e, n, nil
}
