// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import (
	"cmp"
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// CoordinateTolerance is how far, in degrees, a coordinate may fall outside its
// valid range and still be clamped instead of rejected.
const CoordinateTolerance = 1e-6

// Kind tells caller sites apart from points synthesized by the builder.
type Kind uint8

const (
	KindSite Kind = iota
	KindGhost
	KindFrame
)

func (k Kind) String() string {
	switch k {
	case KindSite:
		return "site"
	case KindGhost:
		return "ghost"
	case KindFrame:
		return "frame"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Point is a triangulation vertex. ID is the caller's index, or -1 for
// synthetic points.
type Point struct {
	s2.Point
	ID       int
	Lat, Lon float64
	Kind     Kind

	// hint is the triangle currently believed to contain the point.
	hint triHandle
}

func newPoint(id int, p s2.Point, kind Kind) Point {
	ll := s2.LatLngFromPoint(p)
	return Point{
		Point: p,
		ID:    id,
		Lat:   ll.Lat.Degrees(),
		Lon:   wrap360(ll.Lng.Degrees()),
		Kind:  kind,
		hint:  noTriangle,
	}
}

func newPointFromDegrees(id int, lat, lon float64, kind Kind) Point {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return newPoint(id, p, kind)
}

// NormalizeLatLon wraps lon into [0, 360) and clamps a latitude that falls
// marginally outside [-90, 90]. clamped reports whether lat was changed.
func NormalizeLatLon(lat, lon float64) (nlat, nlon float64, clamped bool, err error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return 0, 0, false, fmt.Errorf("%w: lat %v, lon %v", ErrInvalidCoordinate, lat, lon)
	}
	switch {
	case lat > 90+CoordinateTolerance || lat < -90-CoordinateTolerance:
		return 0, 0, false, fmt.Errorf("%w: lat %v out of [-90, 90]", ErrInvalidCoordinate, lat)
	case lat > 90:
		lat, clamped = 90, true
	case lat < -90:
		lat, clamped = -90, true
	}
	return lat, wrap360(lon), clamped, nil
}

func wrap360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon = 0
	}
	return lon
}

// CalculateDistance returns the great-circle distance to other.
func (p *Point) CalculateDistance(other *Point) s1.Angle {
	return p.Distance(other.Point)
}

// Position is the side of a directed great-circle arc a point lies on,
// looking at the sphere from outside.
type Position int

const (
	Left Position = iota
	Right
	OnEdge
)

func (pos Position) String() string {
	switch pos {
	case Left:
		return "left"
	case Right:
		return "right"
	case OnEdge:
		return "on edge"
	}
	return fmt.Sprintf("Position(%d)", int(pos))
}

// PositionToEdge classifies p against the directed arc p1->p2. The signed
// distance of p to the plane of the arc is compared against eps.
func (p *Point) PositionToEdge(p1, p2 *Point, eps float64) Position {
	n := p1.Vector.Cross(p2.Vector)
	nn := n.Norm()
	if nn == 0 {
		return OnEdge
	}
	d := n.Dot(p.Vector) / nn
	switch {
	case d > eps:
		return Left
	case d < -eps:
		return Right
	}
	return OnEdge
}

// Location is the result of locating a point against a triangle.
type Location int

const (
	Inside Location = iota
	Outside
	OnBoundary
	OnVertex
)

func (l Location) String() string {
	switch l {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	case OnBoundary:
		return "on boundary"
	case OnVertex:
		return "on vertex"
	}
	return fmt.Sprintf("Location(%d)", int(l))
}

// PositionToTriangle locates p against the CCW triangle (a, b, c). The
// returned index is the edge (i -> i+1) for Outside and OnBoundary, and the
// vertex for OnVertex.
func (p *Point) PositionToTriangle(a, b, c *Point, eps float64) (Location, int) {
	vs := [3]*Point{a, b, c}
	var on [3]bool
	numOn := 0
	for i := range 3 {
		switch p.PositionToEdge(vs[i], vs[(i+1)%3], eps) {
		case Right:
			return Outside, i
		case OnEdge:
			on[i] = true
			numOn++
		}
	}

	switch numOn {
	case 0:
		return Inside, -1
	case 1:
		for i := range 3 {
			if on[i] {
				return OnBoundary, i
			}
		}
	}

	// Two edges meet at the vertex they share.
	for i := range 3 {
		if on[i] && on[(i+1)%3] {
			return OnVertex, (i + 1) % 3
		}
	}
	return OnVertex, 0
}

// comparePoints is the total order used to break cocircular ties.
func comparePoints(a, b *Point) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}
