// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import "fmt"

// triHandle addresses a pool slot at a given generation. A handle whose
// generation no longer matches refers to a reclaimed triangle.
type triHandle struct {
	idx int
	gen uint32
}

var noTriangle = triHandle{idx: -1}

// pool is the arena owning every triangle and edge of one triangulation.
// Slots retired during an insertion step are reclaimed only when the step
// ends, so walks and redistributions of the step never see reused slots.
type pool struct {
	triangles []Triangle
	edges     []Edge

	freeTriangles []int
	freeEdges     []int

	retiredTriangles []int
	retiredEdges     []int

	live int
}

func newPool(numPoints int) pool {
	// A sphere triangulation of n vertices has 2n-4 faces.
	n := max(2*numPoints, 8)
	return pool{
		triangles: make([]Triangle, 0, n+16),
		edges:     make([]Edge, 0, 3*n+48),
	}
}

func (pl *pool) allocEdge(tail, head, tri int) int {
	var e int
	if k := len(pl.freeEdges); k > 0 {
		e = pl.freeEdges[k-1]
		pl.freeEdges = pl.freeEdges[:k-1]
	} else {
		e = len(pl.edges)
		pl.edges = append(pl.edges, Edge{})
	}
	pl.edges[e].reset(tail, head, tri)
	return e
}

// newTriangle allocates the CCW triangle (a, b, c) with its three edges.
func (pl *pool) newTriangle(a, b, c int) int {
	var t int
	if k := len(pl.freeTriangles); k > 0 {
		t = pl.freeTriangles[k-1]
		pl.freeTriangles = pl.freeTriangles[:k-1]
	} else {
		t = len(pl.triangles)
		pl.triangles = append(pl.triangles, Triangle{})
	}

	vs := [3]int{a, b, c}
	var es [3]int
	for i := range 3 {
		es[i] = pl.allocEdge(vs[i], vs[(i+1)%3], t)
	}
	for i := range 3 {
		pl.edges[es[i]].Next = es[(i+1)%3]
		pl.edges[es[i]].Prev = es[(i+2)%3]
	}

	tri := &pl.triangles[t]
	tri.V = vs
	tri.E = es
	tri.hasCenter = false
	tri.leaf = true
	tri.remained = tri.remained[:0]
	tri.children = tri.children[:0]
	pl.live++
	return t
}

// retire takes t out of the live triangulation, recording its replacements.
func (pl *pool) retire(t int, children ...int) {
	tri := &pl.triangles[t]
	tri.leaf = false
	tri.children = append(tri.children[:0], children...)
	pl.retiredTriangles = append(pl.retiredTriangles, t)
	pl.retiredEdges = append(pl.retiredEdges, tri.E[:]...)
	pl.live--
}

// reclaim returns the slots retired since the last call to the free lists.
func (pl *pool) reclaim() {
	for _, t := range pl.retiredTriangles {
		tri := &pl.triangles[t]
		tri.gen++
		tri.remained = tri.remained[:0]
		tri.children = tri.children[:0]
		pl.freeTriangles = append(pl.freeTriangles, t)
	}
	pl.freeEdges = append(pl.freeEdges, pl.retiredEdges...)
	pl.retiredTriangles = pl.retiredTriangles[:0]
	pl.retiredEdges = pl.retiredEdges[:0]
}

func (pl *pool) handle(t int) triHandle {
	return triHandle{idx: t, gen: pl.triangles[t].gen}
}

// resolve returns the slot of h, failing if the slot has been reclaimed.
func (pl *pool) resolve(h triHandle) (int, error) {
	if h.idx < 0 || h.idx >= len(pl.triangles) {
		return -1, fmt.Errorf("%w: handle %d out of range", ErrStaleHandle, h.idx)
	}
	if pl.triangles[h.idx].gen != h.gen {
		return -1, fmt.Errorf("%w: triangle %d generation %d, handle generation %d",
			ErrStaleHandle, h.idx, pl.triangles[h.idx].gen, h.gen)
	}
	return h.idx, nil
}

// leaves returns the live triangles in slot order.
func (pl *pool) leaves() []int {
	out := make([]int, 0, pl.live)
	for t := range pl.triangles {
		if pl.triangles[t].leaf {
			out = append(out, t)
		}
	}
	return out
}
