// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2voronoi

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/remapcore/s2voronoi/s2delaunay"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// ErrDegenerateCell is returned when a site in the triangulation ends up
// with a cell of fewer than three corners.
var ErrDegenerateCell = errors.New("degenerate cell")

// Boundary is a lon/lat rectangle in degrees bounding a regional grid.
type Boundary = s2delaunay.Region

// Grid is a set of cell centers in degrees. Lons and Lats are parallel.
type Grid struct {
	Lons, Lats []float64
	// Global grids cover the whole sphere; otherwise Boundary bounds the grid.
	Global   bool
	Boundary Boundary
	// Redundant marks centers that get no cell.
	Redundant []bool
}

// CellBoundaries holds the corners of every cell, flattened. Cell i owns
// VertexCounts[i] corners starting at Offsets[i].
type CellBoundaries struct {
	VertexLons   []float64
	VertexLats   []float64
	VertexCounts []int
	Offsets      []int

	areas []float64
}

// NumCells returns the number of cells, one per grid center.
func (cb *CellBoundaries) NumCells() int {
	return len(cb.VertexCounts)
}

// Cell returns the corners of cell i.
func (cb *CellBoundaries) Cell(i int) (lons, lats []float64) {
	if i < 0 || i >= cb.NumCells() {
		panic("Cell: index out of range")
	}
	start, end := cb.Offsets[i], cb.Offsets[i]+cb.VertexCounts[i]
	return cb.VertexLons[start:end], cb.VertexLats[start:end]
}

// MaxVertices returns the largest corner count of any cell.
func (cb *CellBoundaries) MaxVertices() int {
	m := 0
	for _, n := range cb.VertexCounts {
		m = max(m, n)
	}
	return m
}

// Padded returns the corners as fixed-stride rows of MaxVertices entries,
// unused entries set to fill.
func (cb *CellBoundaries) Padded(fill float64) (lons, lats [][]float64) {
	stride := cb.MaxVertices()
	lons = make([][]float64, cb.NumCells())
	lats = make([][]float64, cb.NumCells())
	for i := range lons {
		lons[i] = make([]float64, stride)
		lats[i] = make([]float64, stride)
		cl, ct := cb.Cell(i)
		copy(lons[i], cl)
		copy(lats[i], ct)
		for k := len(cl); k < stride; k++ {
			lons[i][k], lats[i][k] = fill, fill
		}
	}
	return lons, lats
}

// Areas returns the area of every cell on the unit sphere, in steradians.
func (cb *CellBoundaries) Areas() []float64 {
	return cb.areas
}

// TotalArea returns the summed area of all cells.
func (cb *CellBoundaries) TotalArea() float64 {
	return floats.Sum(cb.areas)
}

// Triangulate builds the Delaunay triangulation of the grid centers, with
// the ghost and frame points of a regional grid appended after them.
func (g Grid) Triangulate(setters ...DiagramOption) (*s2delaunay.Triangulation, error) {
	opts, err := newDiagramOptions(setters)
	if err != nil {
		return nil, err
	}
	return g.triangulate(opts)
}

func (g Grid) triangulate(opts DiagramOptions) (*s2delaunay.Triangulation, error) {
	if len(g.Lons) != len(g.Lats) {
		return nil, fmt.Errorf("s2voronoi: %d longitudes for %d latitudes", len(g.Lons), len(g.Lats))
	}
	if g.Redundant != nil && len(g.Redundant) != len(g.Lons) {
		return nil, fmt.Errorf("s2voronoi: redundant mask has %d entries for %d points",
			len(g.Redundant), len(g.Lons))
	}
	log := opts.Logger
	sites := make(s2.PointVector, len(g.Lons))
	for i := range g.Lons {
		lat, lon, clamped, err := s2delaunay.NormalizeLatLon(g.Lats[i], g.Lons[i])
		if err != nil {
			return nil, fmt.Errorf("s2voronoi: point %d: %w", i, err)
		}
		if clamped {
			log.WithFields(logrus.Fields{"point": i, "lat": g.Lats[i]}).Warn("latitude clamped to pole")
		}
		sites[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	}

	topts := opts.triangulationOptions()
	if g.Redundant != nil {
		topts = append(topts, s2delaunay.WithRedundant(g.Redundant))
	}
	if !g.Global {
		topts = append(topts, s2delaunay.WithRegion(g.Boundary))
	}
	return s2delaunay.NewTriangulation(sites, topts...)
}

// GenerateCellBoundaries builds the Voronoi cell of every grid center and
// returns their corners.
func GenerateCellBoundaries(g Grid, setters ...DiagramOption) (*CellBoundaries, error) {
	opts, err := newDiagramOptions(setters)
	if err != nil {
		return nil, err
	}
	dt, err := g.triangulate(opts)
	if err != nil {
		return nil, err
	}
	d := generateVoronoiDiagram(dt, opts.MergeTolerance)

	cb, err := extractVertexCoordinateValues(d, g, dt.Inserted, opts.MergeTolerance)
	if err != nil {
		return nil, err
	}
	opts.Logger.WithFields(logrus.Fields{
		"cells":        cb.NumCells(),
		"max_vertices": cb.MaxVertices(),
		"total_area":   cb.TotalArea(),
	}).Debug("cell boundaries generated")
	return cb, nil
}

// extractVertexCoordinateValues flattens the cell corners into lon/lat
// arrays. Cells of a regional grid are clipped to the boundary's latitude
// band first. Corner longitudes are unwrapped to lie within 180 degrees of
// the site longitude so that cells crossing the seam stay contiguous.
// Sites left out of the triangulation get no corners.
func extractVertexCoordinateValues(d *Diagram, g Grid, inserted []bool, tol s1.Angle) (*CellBoundaries, error) {
	n := d.NumCells()
	cb := &CellBoundaries{
		VertexLons:   make([]float64, 0, len(d.CellVertices)),
		VertexLats:   make([]float64, 0, len(d.CellVertices)),
		VertexCounts: make([]int, n),
		Offsets:      make([]int, n),
		areas:        make([]float64, n),
	}
	for i := range n {
		cb.Offsets[i] = len(cb.VertexLons)
		if !inserted[i] {
			continue
		}
		c := Cell{idx: i, d: d}
		ring := c.Vertices()
		if len(ring) >= 3 && !g.Global {
			ring = clipToBand(ring, g.Boundary, tol)
		}
		if len(ring) < 3 {
			return nil, fmt.Errorf("s2voronoi: %w: site %d at lat %v, lon %v has %d corners",
				ErrDegenerateCell, i, g.Lats[i], g.Lons[i], len(ring))
		}
		for _, p := range ring {
			ll := s2.LatLngFromPoint(p)
			lon := g.Lons[i] + math.Remainder(ll.Lng.Degrees()-g.Lons[i], 360)
			cb.VertexLons = append(cb.VertexLons, lon)
			cb.VertexLats = append(cb.VertexLats, ll.Lat.Degrees())
		}
		cb.VertexCounts[i] = len(ring)
		cb.areas[i] = fanArea(c.Site(), ring)
	}
	return cb, nil
}
