// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// seedHull is the convex hull of a few points, grown one point at a time.
// Faces are counter-clockwise seen from outside. All decisions use orient,
// so coplanar and nearly coincident points never produce an inconsistent
// hull.
type seedHull struct {
	pts   []Point
	faces [][3]int
}

func (h *seedHull) orient(f [3]int, d r3.Vector) int {
	return orient(h.pts[f[0]].Vector, h.pts[f[1]].Vector, h.pts[f[2]].Vector, d)
}

// add merges point p into the hull and reports whether the hull changed.
// A point on or beneath every face is left out.
func (h *seedHull) add(p int) bool {
	var visible, kept [][3]int
	for _, f := range h.faces {
		if h.orient(f, h.pts[p].Vector) > 0 {
			visible = append(visible, f)
		} else {
			kept = append(kept, f)
		}
	}
	if len(visible) == 0 {
		return false
	}

	seen := make(map[[2]int]bool, 3*len(visible))
	for _, f := range visible {
		for k := range 3 {
			seen[[2]int{f[k], f[(k+1)%3]}] = true
		}
	}
	for _, f := range visible {
		for k := range 3 {
			u, v := f[k], f[(k+1)%3]
			if !seen[[2]int{v, u}] {
				kept = append(kept, [3]int{u, v, p})
			}
		}
	}
	h.faces = kept
	return true
}

// exposedFace returns the first face the origin does not lie strictly
// beneath, or -1 when the hull encloses the origin.
func (h *seedHull) exposedFace() int {
	for i, f := range h.faces {
		if h.orient(f, r3.Vector{}) >= 0 {
			return i
		}
	}
	return -1
}

// furthestBeyond returns the point of cand lying strictly beyond face f and
// furthest from its plane, or -1 if there is none.
func (h *seedHull) furthestBeyond(f [3]int, cand []int) int {
	a := h.pts[f[0]].Vector
	n := h.pts[f[1]].Sub(a).Cross(h.pts[f[2]].Sub(a))
	best, bestDist := -1, 0.0
	for _, p := range cand {
		if h.orient(f, h.pts[p].Vector) <= 0 {
			continue
		}
		if d := n.Dot(h.pts[p].Sub(a)); best < 0 || d > bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// initialTetrahedron picks four points of order spanning a tetrahedron and
// returns its faces. Among equally good points the earliest wins.
func (b *builder) initialTetrahedron(order []int) ([][3]int, error) {
	vec := func(i int) r3.Vector { return b.points[i].Vector }

	// argmax scans order and keeps the first point of largest score.
	argmax := func(score func(int) float64) int {
		best, bestScore := -1, 0.0
		for _, p := range order {
			if s := score(p); s > bestScore {
				best, bestScore = p, s
			}
		}
		return best
	}

	a := order[0]
	c1 := argmax(func(p int) float64 { return vec(p).Sub(vec(a)).Norm2() })
	if c1 < 0 {
		return nil, fmt.Errorf("s2delaunay: %w: all points coincide", ErrDomainNotCovered)
	}
	ab := vec(c1).Sub(vec(a))
	c2 := argmax(func(p int) float64 { return ab.Cross(vec(p).Sub(vec(a))).Norm2() })
	if c2 < 0 {
		return nil, fmt.Errorf("s2delaunay: %w: all points lie on one line", ErrDomainNotCovered)
	}
	n := ab.Cross(vec(c2).Sub(vec(a)))
	d := argmax(func(p int) float64 {
		if orient(vec(a), vec(c1), vec(c2), vec(p)) == 0 {
			return 0
		}
		dist := n.Dot(vec(p).Sub(vec(a)))
		// Either side of the plane will do.
		return max(dist, -dist, 1e-300)
	})
	if d < 0 {
		return nil, fmt.Errorf("s2delaunay: %w: all points lie on one circle", ErrDomainNotCovered)
	}

	if orient(vec(a), vec(c1), vec(c2), vec(d)) > 0 {
		c1, c2 = c2, c1
	}
	return [][3]int{{a, c1, c2}, {a, d, c1}, {c1, d, c2}, {c2, d, a}}, nil
}
