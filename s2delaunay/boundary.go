// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"
)

// Region is a rectangular lon/lat boundary in degrees. MaxLon may exceed 360
// for regions crossing the 0/360 seam.
type Region struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// Validate checks that the region is non-empty and narrower than a hemisphere
// in longitude.
func (r Region) Validate() error {
	w := r.MaxLon - r.MinLon
	switch {
	case math.IsNaN(w) || math.IsNaN(r.MinLat) || math.IsNaN(r.MaxLat):
		return fmt.Errorf("%w: NaN bound in %+v", ErrInvalidBoundary, r)
	case w <= 0 || w >= 180:
		return fmt.Errorf("%w: lon width %v must be in (0, 180)", ErrInvalidBoundary, w)
	case r.MinLat < -90 || r.MaxLat > 90 || r.MinLat >= r.MaxLat:
		return fmt.Errorf("%w: lat range [%v, %v]", ErrInvalidBoundary, r.MinLat, r.MaxLat)
	}
	return nil
}

// Width returns the longitude extent in degrees.
func (r Region) Width() float64 { return r.MaxLon - r.MinLon }

// Height returns the latitude extent in degrees.
func (r Region) Height() float64 { return r.MaxLat - r.MinLat }

// Area returns the spherical area of the region on the unit sphere.
func (r Region) Area() float64 {
	return r.Width() * math.Pi / 180 * (math.Sin(r.MaxLat*math.Pi/180) - math.Sin(r.MinLat*math.Pi/180))
}

// lonOffset returns how far east of MinLon the longitude lies, in [0, 360).
func (r Region) lonOffset(lon float64) float64 {
	return wrap360(lon - r.MinLon)
}

// Contains reports whether (lat, lon) lies in the region, boundary included.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && r.lonOffset(lon) <= r.Width()
}

// clamp pulls a point lying marginally outside the region onto its boundary.
// The returned longitude is expressed on the region's branch, MinLon <= lon <= MaxLon.
// Excursions below conversion round-off are absorbed without reporting a clamp.
func (r Region) clamp(lat, lon float64) (clat, clon float64, clamped bool, err error) {
	const roundoff = 1e-9

	off := r.lonOffset(lon)
	if w := r.Width(); off > w {
		switch {
		case off-w <= CoordinateTolerance:
			clamped = off-w > roundoff
			off = w
		case 360-off <= CoordinateTolerance:
			clamped = 360-off > roundoff
			off = 0
		default:
			return 0, 0, false, fmt.Errorf("%w: lon %v outside [%v, %v]", ErrPointOutsideRegion, lon, r.MinLon, r.MaxLon)
		}
	}
	switch {
	case lat < r.MinLat-CoordinateTolerance || lat > r.MaxLat+CoordinateTolerance:
		return 0, 0, false, fmt.Errorf("%w: lat %v outside [%v, %v]", ErrPointOutsideRegion, lat, r.MinLat, r.MaxLat)
	case lat < r.MinLat:
		clamped = clamped || r.MinLat-lat > roundoff
		lat = r.MinLat
	case lat > r.MaxLat:
		clamped = clamped || lat-r.MaxLat > roundoff
		lat = r.MaxLat
	}
	return lat, r.MinLon + off, clamped, nil
}

// extendedContains reports whether a point lies in the region grown by its
// own width and height on every side, the band the ghost points occupy.
func (r Region) extendedContains(lat, lon float64) bool {
	w, h := r.Width(), r.Height()
	if lat < r.MinLat-h || lat > r.MaxLat+h {
		return false
	}
	if math.Abs(lat) >= 90 || 3*w >= 360 {
		return true
	}
	return wrap360(lon-(r.MinLon-w)) <= 3*w
}

var framePoints = [...]s2.Point{
	s2.PointFromCoords(1, 0, 0),
	s2.PointFromCoords(-1, 0, 0),
	s2.PointFromCoords(0, 1, 0),
	s2.PointFromCoords(0, -1, 0),
	s2.PointFromCoords(0, 0, 1),
	s2.PointFromCoords(0, 0, -1),
}

// generateBoundaryPoints clamps the caller sites into the region and appends
// the synthetic points that bound their cells: the mirror image of every
// site across each side of the region, and the frame points that close the
// triangulation around the rest of the sphere.
//
// A meridian side is a great circle and mirrors exactly. The parallel on the
// equator side of the region is mirrored in latitude; the bisector of such a
// pair never enters the region. The parallel on the pole side is replaced by
// the great circle through its two corners, which bulges away from the
// region. Cells thus cover the region exactly but may reach past its
// parallels; callers clip them to the latitude band.
func (b *builder) generateBoundaryPoints(r Region) error {
	if err := r.Validate(); err != nil {
		return err
	}

	near := func(a, c float64) bool { return math.Abs(a-c) <= CoordinateTolerance }
	for i := range b.numSites {
		if b.redundant(i) {
			continue
		}
		p := b.points[i]
		lat, lon, clamped, err := r.clamp(p.Lat, p.Lon)
		if err != nil {
			return fmt.Errorf("s2delaunay: site %d: %w", i, err)
		}
		if clamped {
			b.log.WithFields(logrus.Fields{
				"site": i, "lat": p.Lat, "lon": p.Lon,
			}).Warn("site clamped onto region boundary")
			b.points[i] = newPointFromDegrees(i, lat, lon, KindSite)
		}

		if !near(lon, r.MinLon) {
			b.addGhost(lat, 2*r.MinLon-lon)
		}
		if !near(lon, r.MaxLon) {
			b.addGhost(lat, 2*r.MaxLon-lon)
		}
		switch {
		case r.MinLat > 0 && !near(lat, r.MinLat):
			b.addGhost(2*r.MinLat-lat, lon)
		case r.MinLat <= 0 && r.MinLat > -90:
			b.addChordGhost(r.MinLat, r.MinLon, r.MaxLon, b.points[i].Point)
		}
		switch {
		case r.MaxLat < 0 && !near(lat, r.MaxLat):
			b.addGhost(2*r.MaxLat-lat, lon)
		case r.MaxLat >= 0 && r.MaxLat < 90:
			b.addChordGhost(r.MaxLat, r.MinLon, r.MaxLon, b.points[i].Point)
		}
	}

	numGhosts := len(b.points) - b.numSites
	for _, f := range framePoints {
		ll := s2.LatLngFromPoint(f)
		if r.extendedContains(ll.Lat.Degrees(), ll.Lng.Degrees()) {
			continue
		}
		b.points = append(b.points, newPoint(-1, f, KindFrame))
	}

	b.log.WithFields(logrus.Fields{
		"ghosts": numGhosts,
		"frame":  len(b.points) - b.numSites - numGhosts,
	}).Debug("boundary points generated")
	return nil
}

// addChordGhost mirrors p across the great circle through the corners
// (lat, lon1) and (lat, lon2). Sites on that circle get no ghost.
func (b *builder) addChordGhost(lat, lon1, lon2 float64, p s2.Point) {
	c1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon1))
	c2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon2))
	n := c1.Cross(c2.Vector).Normalize()
	d := p.Dot(n)
	if math.Abs(d) <= CoordinateTolerance*math.Pi/180 {
		return
	}
	g := s2.Point{Vector: p.Sub(n.Mul(2 * d)).Normalize()}
	b.points = append(b.points, newPoint(-1, g, KindGhost))
}

// addGhost appends a mirrored point. Latitudes beyond a pole continue over it
// along the same great circle.
func (b *builder) addGhost(lat, lon float64) {
	b.points = append(b.points, newPointFromDegrees(-1, lat, lon, KindGhost))
}
