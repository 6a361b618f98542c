// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package s2voronoi implements Voronoi diagrams on the S2 sphere, built on Delaunay triangulation.

package s2voronoi

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// Cell represents a Voronoi cell. It is a view structure for accessing a cell in a Diagram.
// The cell's index corresponds to the index of its site in the Diagram's Sites.
type Cell struct {
	idx int
	d   *Diagram
}

// SiteIndex returns the index of the site in the Diagram's Sites.
func (c Cell) SiteIndex() int {
	return c.idx
}

// Site returns the site point of the cell.
func (c Cell) Site() s2.Point {
	return c.d.Sites[c.idx]
}

// NumVertices returns the number of vertices in the cell.
// Coincident vertices are merged, so this may be less than the number of neighbors.
func (c Cell) NumVertices() int {
	return c.d.CellVertexOffsets[c.idx+1] - c.d.CellVertexOffsets[c.idx]
}

// VertexIndices returns the indices of the vertices that form the cell in the Diagram's Vertices,
// sorted in counter-clockwise order when looking out of the sphere.
func (c Cell) VertexIndices() []int {
	return c.d.CellVertices[c.d.CellVertexOffsets[c.idx]:c.d.CellVertexOffsets[c.idx+1]]
}

// Vertex returns the vertex at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Vertex(i int) (s2.Point, error) {
	start := c.d.CellVertexOffsets[c.idx]
	end := c.d.CellVertexOffsets[c.idx+1]
	if i < 0 || i >= end-start {
		return s2.Point{}, fmt.Errorf("Vertex: index %d out of range [0 %d)", i, end-start)
	}
	return c.d.Vertices[c.d.CellVertices[start+i]], nil
}

// NumNeighbors returns the number of neighboring cells, synthetic ones included.
func (c Cell) NumNeighbors() int {
	return c.d.CellNeighborOffsets[c.idx+1] - c.d.CellNeighborOffsets[c.idx]
}

// NeighborIndices returns the indices of the neighboring cells in the Diagram,
// sorted in counter-clockwise order when looking out of the sphere.
// A neighbor outside the caller's sites is reported as -1.
func (c Cell) NeighborIndices() []int {
	return c.d.CellNeighbors[c.d.CellNeighborOffsets[c.idx]:c.d.CellNeighborOffsets[c.idx+1]]
}

// Neighbor returns the neighboring cell at the specified index.
// It returns an error if the index is out of range or the neighbor is synthetic.
func (c Cell) Neighbor(i int) (Cell, error) {
	start := c.d.CellNeighborOffsets[c.idx]
	end := c.d.CellNeighborOffsets[c.idx+1]
	if i < 0 || i >= end-start {
		return Cell{}, fmt.Errorf("Neighbor: index %d out of range [0 %d)", i, end-start)
	}
	nc, err := c.d.Cell(c.d.CellNeighbors[start+i])
	if err != nil {
		return Cell{}, err
	}
	return nc, nil
}

// Area returns the area of the cell on the unit sphere, in steradians.
func (c Cell) Area() float64 {
	return fanArea(c.Site(), c.Vertices())
}

// Vertices returns the cell vertices in counter-clockwise order.
func (c Cell) Vertices() []s2.Point {
	vs := c.VertexIndices()
	out := make([]s2.Point, len(vs))
	for i, v := range vs {
		out[i] = c.d.Vertices[v]
	}
	return out
}

// fanArea sums the signed areas of the triangles joining center to every
// edge of ring.
func fanArea(center s2.Point, ring []s2.Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	var area float64
	for i, a := range ring {
		area += s2.SignedArea(center, a, ring[(i+1)%len(ring)])
	}
	return area
}

// LatLngs returns the cell vertices as latitude/longitude pairs.
func (c Cell) LatLngs() []s2.LatLng {
	vs := c.VertexIndices()
	out := make([]s2.LatLng, len(vs))
	for i, v := range vs {
		out[i] = s2.LatLngFromPoint(c.d.Vertices[v])
	}
	return out
}
