// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Triangle is a face of the triangulation. E[i] runs from V[i] to V[(i+1)%3]
// and the vertices are CCW seen from outside the sphere.
type Triangle struct {
	V [3]int
	E [3]int

	center    s2.Point
	hasCenter bool

	leaf bool
	gen  uint32

	// remained holds points not yet inserted that fall inside the triangle.
	remained []int
	// children replace the triangle once it is split or flipped.
	children []int
}

// IsLeaf reports whether the triangle is part of the live triangulation.
func (t *Triangle) IsLeaf() bool {
	return t.leaf
}

// getCenterCoordinates returns the cached circumcenter, computing it on first use.
func (t *Triangle) getCenterCoordinates(pts []Point) s2.Point {
	if !t.hasCenter {
		t.center = circumcenter(pts[t.V[0]].Point, pts[t.V[1]].Point, pts[t.V[2]].Point)
		t.hasCenter = true
	}
	return t.center
}

// findBestCandidatePoint removes and returns the remained point closest to
// the circumcenter, or -1 when there is none.
func (t *Triangle) findBestCandidatePoint(pts []Point) int {
	if len(t.remained) == 0 {
		return -1
	}
	c := t.getCenterCoordinates(pts)
	best, bestDot := -1, math.Inf(-1)
	for i, p := range t.remained {
		if d := c.Dot(pts[p].Vector); d > bestDot {
			best, bestDot = i, d
		}
	}
	p := t.remained[best]
	last := len(t.remained) - 1
	t.remained[best] = t.remained[last]
	t.remained = t.remained[:last]
	return p
}

// edgeFrom returns the position in E of the edge leaving v, or -1.
func (t *Triangle) edgeFrom(v int) int {
	for i, w := range t.V {
		if w == v {
			return i
		}
	}
	return -1
}

// checkAndSetTwinEdgeRelationship wires the twins of the edge shared by
// triangles a and b.
func (pl *pool) checkAndSetTwinEdgeRelationship(a, b int) error {
	ta, tb := &pl.triangles[a], &pl.triangles[b]
	for _, ea := range ta.E {
		for _, eb := range tb.E {
			if pl.edges[ea].Tail == pl.edges[eb].Head && pl.edges[ea].Head == pl.edges[eb].Tail {
				return pl.linkTwins(ea, eb)
			}
		}
	}
	return fmt.Errorf("%w: triangles %d %v and %d %v share no edge", ErrTwinMismatch, a, ta.V, b, tb.V)
}

func circumcenter(p1, p2, p3 s2.Point) s2.Point {
	v1 := p1.Sub(p2.Vector)
	v2 := p2.Sub(p3.Vector)

	c := v1.Cross(v2)

	if c.Dot(p1.Vector.Add(p2.Vector).Add(p3.Vector)) < 0 {
		c = c.Mul(-1)
	}

	return s2.Point{Vector: c.Normalize()}
}
