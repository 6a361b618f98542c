// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2voronoi

import (
	"errors"
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/remapcore/s2voronoi/s2delaunay"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultEps            = 1e-12
	defaultMergeTolerance = s1.Angle(1e-10)
)

// Diagram is the Voronoi dual of a Triangulation. Cells exist for the caller
// sites only; synthetic points of a regional triangulation have none.
type Diagram struct {
	Sites    s2.PointVector
	Vertices s2.PointVector

	// NOTE: Sort in CCW per Cell(look out of sphere)
	CellVertices      []int
	CellVertexOffsets []int
	// NOTE: Sort in CCW per Cell(look out of sphere)
	CellNeighbors       []int
	CellNeighborOffsets []int
}

// NumCells returns the number of cells, one per site.
func (d *Diagram) NumCells() int {
	return len(d.Sites)
}

// Cell returns the cell of site i.
func (d *Diagram) Cell(i int) (Cell, error) {
	if i < 0 || i >= d.NumCells() {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, d.NumCells())
	}
	return Cell{idx: i, d: d}, nil
}

// TotalArea returns the summed area of all cells in steradians.
func (d *Diagram) TotalArea() float64 {
	areas := make([]float64, d.NumCells())
	for i := range areas {
		areas[i] = Cell{idx: i, d: d}.Area()
	}
	return floats.Sum(areas)
}

type DiagramOptions struct {
	Eps              float64
	MergeTolerance   s1.Angle
	MaxLegalizeCount int
	Logger           logrus.FieldLogger
}

type DiagramOption func(*DiagramOptions) error

func WithEps(eps float64) DiagramOption {
	return func(o *DiagramOptions) error {
		if eps <= 0 || eps > s2delaunay.MaxEps {
			return fmt.Errorf("WithEps: eps %v must be in (0, %v]", eps, s2delaunay.MaxEps)
		}
		o.Eps = eps
		return nil
	}
}

// WithMergeTolerance sets the angle below which consecutive cell vertices
// are merged into one.
func WithMergeTolerance(tol s1.Angle) DiagramOption {
	return func(o *DiagramOptions) error {
		if tol < 0 {
			return errors.New("WithMergeTolerance: tolerance must be non-negative")
		}
		o.MergeTolerance = tol
		return nil
	}
}

func WithMaxLegalizeCount(n int) DiagramOption {
	return func(o *DiagramOptions) error {
		if n < 1 {
			return errors.New("WithMaxLegalizeCount: count must be positive")
		}
		o.MaxLegalizeCount = n
		return nil
	}
}

func WithLogger(l logrus.FieldLogger) DiagramOption {
	return func(o *DiagramOptions) error {
		if l == nil {
			return errors.New("WithLogger: nil logger")
		}
		o.Logger = l
		return nil
	}
}

func newDiagramOptions(setters []DiagramOption) (DiagramOptions, error) {
	opts := DiagramOptions{
		Eps:            defaultEps,
		MergeTolerance: defaultMergeTolerance,
		Logger:         logrus.StandardLogger(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (o DiagramOptions) triangulationOptions() []s2delaunay.TriangulationOption {
	out := []s2delaunay.TriangulationOption{s2delaunay.WithEps(o.Eps), s2delaunay.WithLogger(o.Logger)}
	if o.MaxLegalizeCount > 0 {
		out = append(out, s2delaunay.WithMaxLegalizeCount(o.MaxLegalizeCount))
	}
	return out
}

// NewDiagram computes the Voronoi diagram of sites covering the whole sphere.
func NewDiagram(sites s2.PointVector, setters ...DiagramOption) (*Diagram, error) {
	opts, err := newDiagramOptions(setters)
	if err != nil {
		return nil, err
	}
	dt, err := s2delaunay.NewTriangulation(sites, opts.triangulationOptions()...)
	if err != nil {
		return nil, err
	}
	return generateVoronoiDiagram(dt, opts.MergeTolerance), nil
}

// NewDiagramFromTriangulation computes the dual of an existing triangulation.
func NewDiagramFromTriangulation(dt *s2delaunay.Triangulation, setters ...DiagramOption) (*Diagram, error) {
	opts, err := newDiagramOptions(setters)
	if err != nil {
		return nil, err
	}
	return generateVoronoiDiagram(dt, opts.MergeTolerance), nil
}

func generateVoronoiDiagram(dt *s2delaunay.Triangulation, mergeTol s1.Angle) *Diagram {
	numSites := dt.NumSites
	d := &Diagram{
		Sites:               dt.Vertices[:numSites:numSites],
		Vertices:            dt.Circumcenters,
		CellVertices:        make([]int, 0, 6*numSites),
		CellVertexOffsets:   make([]int, numSites+1),
		CellNeighbors:       make([]int, 0, 6*numSites),
		CellNeighborOffsets: make([]int, numSites+1),
	}

	for v := range numSites {
		d.CellVertexOffsets[v] = len(d.CellVertices)
		d.CellNeighborOffsets[v] = len(d.CellNeighbors)

		start := len(d.CellVertices)
		for _, tIdx := range dt.IncidentTriangles(v) {
			n := s2delaunay.NextVertex(dt.Triangles[tIdx], v)
			if !dt.IsSite(n) {
				n = -1
			}
			d.CellNeighbors = append(d.CellNeighbors, n)

			if last := len(d.CellVertices) - 1; last >= start &&
				d.Vertices[d.CellVertices[last]].Distance(d.Vertices[tIdx]) <= mergeTol {
				continue
			}
			d.CellVertices = append(d.CellVertices, tIdx)
		}
		for last := len(d.CellVertices) - 1; last > start; last-- {
			if d.Vertices[d.CellVertices[last]].Distance(d.Vertices[d.CellVertices[start]]) > mergeTol {
				break
			}
			d.CellVertices = d.CellVertices[:last]
		}
	}
	d.CellVertexOffsets[numSites] = len(d.CellVertices)
	d.CellNeighborOffsets[numSites] = len(d.CellNeighbors)

	return d
}
