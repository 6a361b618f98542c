// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import "fmt"

// Edge is a directed half-edge Tail -> Head. Twin, Next, Prev and Triangle
// are indices into the builder's pool, -1 when unset.
type Edge struct {
	Tail, Head int
	Twin       int
	Next, Prev int
	Triangle   int

	legalizeCount int
}

func (e *Edge) reset(tail, head, tri int) {
	*e = Edge{
		Tail:     tail,
		Head:     head,
		Twin:     -1,
		Next:     -1,
		Prev:     -1,
		Triangle: tri,
	}
}

// linkTwins makes a and b mutual twins.
func (pl *pool) linkTwins(a, b int) error {
	ea, eb := &pl.edges[a], &pl.edges[b]
	if ea.Tail != eb.Head || ea.Head != eb.Tail {
		return fmt.Errorf("%w: edge %d (%d->%d) against edge %d (%d->%d)",
			ErrTwinMismatch, a, ea.Tail, ea.Head, b, eb.Tail, eb.Head)
	}
	ea.Twin = b
	eb.Twin = a
	return nil
}
