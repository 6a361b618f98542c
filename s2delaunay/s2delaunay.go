// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"
)

// MaxEps is the largest accepted geometric tolerance.
const MaxEps = 1e-6

const (
	defaultEps              = 1e-12
	defaultMaxLegalizeCount = 10000
)

type Triangulation struct {
	// Vertices holds the caller sites first, then the synthetic points.
	Vertices s2.PointVector
	Kinds    []Kind
	NumSites int
	// Inserted is false for sites left out of the triangulation.
	Inserted []bool

	Triangles     [][3]int
	Circumcenters s2.PointVector
	// NOTE: Sort in CCW per vertex(look out of sphere)
	IncidentTriangleIndices []int
	IncidentTriangleOffsets []int
}

func (dt *Triangulation) IncidentTriangles(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(dt.IncidentTriangleOffsets) {
		panic("IncidentTriangles: vIdx out of range")
	}
	start := dt.IncidentTriangleOffsets[vIdx]
	end := dt.IncidentTriangleOffsets[vIdx+1]
	return dt.IncidentTriangleIndices[start:end]
}

func (dt *Triangulation) TriangleVertices(tIdx int) (s2.Point, s2.Point, s2.Point) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	t := dt.Triangles[tIdx]
	return dt.Vertices[t[0]], dt.Vertices[t[1]], dt.Vertices[t[2]]
}

// IsSite reports whether vertex vIdx is one of the caller's points.
func (dt *Triangulation) IsSite(vIdx int) bool {
	return vIdx >= 0 && vIdx < dt.NumSites
}

// SiteTriangles returns the triangles whose three vertices are caller sites.
func (dt *Triangulation) SiteTriangles() []int {
	var out []int
	for i, t := range dt.Triangles {
		if dt.IsSite(t[0]) && dt.IsSite(t[1]) && dt.IsSite(t[2]) {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks the structure of the triangulation: CCW triangles, closed
// CCW rings around every used vertex and Euler's formula for the sphere.
func (dt *Triangulation) Validate() error {
	for i, t := range dt.Triangles {
		a, b, c := dt.TriangleVertices(i)
		if a.Cross(b.Vector).Dot(c.Vector) <= 0 {
			return fmt.Errorf("s2delaunay: %w: triangle %d %v is not CCW", ErrBrokenRing, i, t)
		}
	}

	used := 0
	for v := range len(dt.Vertices) {
		ring := dt.IncidentTriangles(v)
		if len(ring) == 0 {
			continue
		}
		used++
		if len(ring) < 3 {
			return fmt.Errorf("s2delaunay: %w: vertex %d has %d incident triangles", ErrBrokenRing, v, len(ring))
		}
		for i, ct := range ring {
			nt := ring[(i+1)%len(ring)]
			if PrevVertex(dt.Triangles[ct], v) != NextVertex(dt.Triangles[nt], v) {
				return fmt.Errorf("s2delaunay: %w: triangles %d and %d around vertex %d", ErrBrokenRing, ct, nt, v)
			}
		}
	}

	if len(dt.Triangles) != 2*used-4 {
		return fmt.Errorf("s2delaunay: %w: %d triangles for %d vertices", ErrBrokenRing, len(dt.Triangles), used)
	}
	return nil
}

type TriangulationOptions struct {
	Eps              float64
	MaxLegalizeCount int
	// Region switches to regional mode. Nil triangulates the whole sphere.
	Region    *Region
	Redundant []bool
	Logger    logrus.FieldLogger
}

type TriangulationOption func(*TriangulationOptions) error

func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 || eps > MaxEps {
			return fmt.Errorf("s2delaunay: eps %v must be in (0, %v]", eps, MaxEps)
		}
		o.Eps = eps
		return nil
	}
}

// WithMaxLegalizeCount bounds how many times a flipped edge may be flipped again.
func WithMaxLegalizeCount(n int) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if n < 1 {
			return fmt.Errorf("s2delaunay: max legalize count %d must be positive", n)
		}
		o.MaxLegalizeCount = n
		return nil
	}
}

// WithRegion triangulates the sites inside r, surrounded by mirrored ghost points.
func WithRegion(r Region) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("s2delaunay: %w", err)
		}
		o.Region = &r
		return nil
	}
}

// WithRedundant excludes the sites whose mask entry is true.
func WithRedundant(mask []bool) TriangulationOption {
	return func(o *TriangulationOptions) error {
		o.Redundant = mask
		return nil
	}
}

func WithLogger(l logrus.FieldLogger) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if l == nil {
			return errors.New("s2delaunay: nil logger")
		}
		o.Logger = l
		return nil
	}
}

// NOTE: All vertices must lie on a sphere.
func NewTriangulation(vertices s2.PointVector, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps:              defaultEps,
		MaxLegalizeCount: defaultMaxLegalizeCount,
		Logger:           logrus.StandardLogger(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	if opts.Redundant != nil && len(opts.Redundant) != len(vertices) {
		return nil, fmt.Errorf("s2delaunay: redundant mask has %d entries for %d vertices",
			len(opts.Redundant), len(vertices))
	}
	for i, p := range vertices {
		n := p.Norm()
		if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n-1) > 1e-9 {
			return nil, fmt.Errorf("s2delaunay: %w: vertex %d %v is not a unit vector",
				ErrInvalidCoordinate, i, p)
		}
	}

	return newBuilder(vertices, opts).run()
}

// extract compacts the live triangles into a Triangulation and builds the
// CCW ring of triangles around every vertex.
func (b *builder) extract() (*Triangulation, error) {
	leaves := b.pool.leaves()
	compact := make(map[int]int, len(leaves))
	for k, t := range leaves {
		compact[t] = k
	}

	n := len(b.points)
	dt := &Triangulation{
		Vertices:                make(s2.PointVector, n),
		Kinds:                   make([]Kind, n),
		NumSites:                b.numSites,
		Inserted:                make([]bool, b.numSites),
		Triangles:               make([][3]int, len(leaves)),
		Circumcenters:           make(s2.PointVector, len(leaves)),
		IncidentTriangleIndices: make([]int, 0, 3*len(leaves)),
		IncidentTriangleOffsets: make([]int, n+1),
	}
	for i, p := range b.points {
		dt.Vertices[i] = p.Point
		dt.Kinds[i] = p.Kind
	}
	copy(dt.Inserted, b.inserted)

	first := make([]int, n)
	for i := range first {
		first[i] = -1
	}
	degree := make([]int, n)
	for k, t := range leaves {
		tri := &b.pool.triangles[t]
		dt.Triangles[k] = tri.V
		dt.Circumcenters[k] = tri.getCenterCoordinates(b.points)
		for _, e := range tri.E {
			first[b.pool.edges[e].Tail] = e
			degree[b.pool.edges[e].Tail]++
		}
	}

	for v := range n {
		dt.IncidentTriangleOffsets[v] = len(dt.IncidentTriangleIndices)
		if first[v] < 0 {
			continue
		}
		e := first[v]
		for range degree[v] {
			ed := b.pool.edges[e]
			dt.IncidentTriangleIndices = append(dt.IncidentTriangleIndices, compact[ed.Triangle])
			e = b.pool.edges[ed.Prev].Twin
			if e < 0 {
				return nil, fmt.Errorf("s2delaunay: %w: open ring around point %d", ErrBrokenRing, v)
			}
		}
		if e != first[v] {
			return nil, fmt.Errorf("s2delaunay: %w: ring around point %d does not close after %d triangles",
				ErrBrokenRing, v, degree[v])
		}
	}
	dt.IncidentTriangleOffsets[n] = len(dt.IncidentTriangleIndices)

	if b.opts.Region != nil {
		if err := b.checkFrameAdjacency(dt); err != nil {
			return nil, err
		}
	}
	return dt, nil
}

// checkFrameAdjacency fails when a frame point shares an edge with a site,
// which would let the frame shape that site's cell.
func (b *builder) checkFrameAdjacency(dt *Triangulation) error {
	for v := range dt.NumSites {
		for _, t := range dt.IncidentTriangles(v) {
			w := NextVertex(dt.Triangles[t], v)
			if dt.Kinds[w] != KindFrame {
				continue
			}
			p := b.points[v]
			return fmt.Errorf("s2delaunay: %w: site %d at lat %.9f, lon %.9f touches frame point %d",
				ErrBoundaryTooCoarse, v, p.Lat, p.Lon, w)
		}
	}
	return nil
}

func PrevVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[2]
	case t[1]:
		return t[0]
	case t[2]:
		return t[1]
	}
	panic("PrevVertex: vIdx not in triangle")
}

func NextVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[1]
	case t[1]:
		return t[2]
	case t[2]:
		return t[0]
	}
	panic("NextVertex: vIdx not in triangle")
}
