// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2voronoi

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// maxParallelStep is the longest step, in radians of longitude, between two
// corners a clipped cell places along a parallel. A geodesic chord of this
// length strays at most step²/8·sin(lat)·cos(lat) from the parallel, so the
// area lost per side of the boundary stays below 3.3e-2·step²·width, about
// 1e-7 sr per radian of boundary width.
const maxParallelStep = 0.1 * math.Pi / 180

// clipToBand returns the part of the ring lying within the latitude band of
// b. The ring is a counter-clockwise cell boundary with geodesic edges; the
// returned ring follows the band's parallels where the cell crosses them.
// Consecutive corners closer than tol are merged.
func clipToBand(ring []s2.Point, b Boundary, tol s1.Angle) []s2.Point {
	if b.MinLat > -90 {
		ring = clipParallel(ring, math.Sin((s1.Angle(b.MinLat) * s1.Degree).Radians()), 1)
	}
	if b.MaxLat < 90 {
		ring = clipParallel(ring, math.Sin((s1.Angle(b.MaxLat) * s1.Degree).Radians()), -1)
	}
	return mergeCorners(ring, tol)
}

// clipParallel keeps the part of ring where side*(z-z0) >= 0. Every piece of
// the boundary that leaves the kept cap or band and comes back is replaced
// by a walk along the parallel z = z0.
func clipParallel(ring []s2.Point, z0, side float64) []s2.Point {
	inside := func(p s2.Point) bool { return side*(p.Z-z0) >= 0 }

	type corner struct {
		p    s2.Point
		exit bool
	}
	var out []corner
	n := len(ring)
	for i, a := range ring {
		b := ring[(i+1)%n]
		in := inside(a)
		if in {
			out = append(out, corner{p: a})
		}
		for _, x := range parallelCrossings(a, b, z0, in != inside(b)) {
			out = append(out, corner{p: x, exit: in})
			in = !in
		}
	}
	if len(out) == 0 {
		return nil
	}

	res := make([]s2.Point, 0, len(out))
	for k, c := range out {
		res = append(res, c.p)
		if c.exit {
			res = append(res, alongParallel(c.p, out[(k+1)%len(out)].p, z0)...)
		}
	}
	return res
}

// parallelCrossings returns, in order from a to b, where the geodesic a-b
// crosses the parallel z = z0. odd tells whether a and b lie on different
// sides; the result is trimmed to agree with it.
func parallelCrossings(a, b s2.Point, z0 float64, odd bool) []s2.Point {
	theta := a.Distance(b).Radians()
	if theta == 0 {
		return nil
	}
	w := a.Cross(b.Vector).Cross(a.Vector).Normalize()

	// z(t) = a.Z cos t + w.Z sin t = r cos(t - phi) along the edge.
	r := math.Hypot(a.Z, w.Z)
	phi := math.Atan2(w.Z, a.Z)
	var ts []float64
	if r > 0 && math.Abs(z0) <= r {
		d := math.Acos(z0 / r)
		for _, t := range [2]float64{phi - d, phi + d} {
			t = math.Mod(t+4*math.Pi, 2*math.Pi)
			if t > 0 && t < theta {
				ts = append(ts, t)
			}
		}
		if len(ts) == 2 && ts[0] > ts[1] {
			ts[0], ts[1] = ts[1], ts[0]
		}
	}

	switch {
	case odd && len(ts) == 0:
		// The crossing sits at an end point within rounding.
		if math.Abs(a.Z-z0) < math.Abs(b.Z-z0) {
			ts = []float64{0}
		} else {
			ts = []float64{theta}
		}
	case odd && len(ts) == 2:
		if ts[0] < theta-ts[1] {
			ts = ts[1:]
		} else {
			ts = ts[:1]
		}
	case !odd && len(ts) == 1:
		ts = nil
	}

	out := make([]s2.Point, len(ts))
	for i, t := range ts {
		out[i] = onParallel(a.Mul(math.Cos(t)).Add(w.Mul(math.Sin(t))), z0)
	}
	return out
}

// alongParallel returns the corners strictly between x and y on the
// parallel z = z0, spaced at most maxParallelStep apart in longitude.
func alongParallel(x, y s2.Point, z0 float64) []s2.Point {
	lx := math.Atan2(x.Y, x.X)
	d := math.Remainder(math.Atan2(y.Y, y.X)-lx, 2*math.Pi)
	steps := int(math.Ceil(math.Abs(d) / maxParallelStep))
	if steps < 2 {
		return nil
	}
	rho := math.Sqrt(1 - z0*z0)
	out := make([]s2.Point, 0, steps-1)
	for k := 1; k < steps; k++ {
		lon := lx + d*float64(k)/float64(steps)
		out = append(out, s2.PointFromCoords(rho*math.Cos(lon), rho*math.Sin(lon), z0))
	}
	return out
}

// onParallel moves p along its meridian onto the parallel z = z0.
func onParallel(p r3.Vector, z0 float64) s2.Point {
	h := math.Hypot(p.X, p.Y)
	if h == 0 {
		return s2.PointFromCoords(0, 0, math.Copysign(1, z0))
	}
	s := math.Sqrt(1-z0*z0) / h
	return s2.PointFromCoords(p.X*s, p.Y*s, z0)
}

// mergeCorners drops corners within tol of their predecessor, the closing
// corner included.
func mergeCorners(ring []s2.Point, tol s1.Angle) []s2.Point {
	out := make([]s2.Point, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1].Distance(p) <= tol {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1].Distance(out[0]) <= tol {
		out = out[:len(out)-1]
	}
	return out
}
