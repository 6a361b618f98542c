// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"
)

// Stage is the builder's position in its one-way pipeline.
type Stage int

const (
	StageNew Stage = iota
	StageSeeded
	StageInserting
	StageLegalized
	StageDualExtracted
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageSeeded:
		return "seeded"
	case StageInserting:
		return "inserting"
	case StageLegalized:
		return "legalized"
	case StageDualExtracted:
		return "dual-extracted"
	case StageDone:
		return "done"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// seedDirections are the directions whose extreme points seed the initial hull.
var seedDirections = [...]r3.Vector{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}, {X: -1, Y: -1, Z: -1},
}

// builder constructs one triangulation and is discarded afterwards.
type builder struct {
	opts TriangulationOptions
	log  logrus.FieldLogger

	points   []Point
	numSites int
	pool     pool
	stage    Stage

	inserted []bool
	dropped  []bool
	seeds    []int

	flips int

	// created collects the triangles made during the current insertion step.
	created []int
}

// bucket is one unit of point redistribution: points known to lie in tri,
// or in the seed triangles when tri is -1.
type bucket struct {
	tri    int
	points []int
}

func newBuilder(sites s2.PointVector, opts TriangulationOptions) *builder {
	b := &builder{
		opts:     opts,
		log:      opts.Logger,
		points:   make([]Point, len(sites), len(sites)+16),
		numSites: len(sites),
	}
	for i, s := range sites {
		b.points[i] = newPoint(i, s, KindSite)
	}
	return b
}

func (b *builder) redundant(i int) bool {
	return i < len(b.opts.Redundant) && b.opts.Redundant[i]
}

func (b *builder) advance(to Stage) error {
	if to != b.stage+1 {
		return fmt.Errorf("s2delaunay: %w: %s -> %s", ErrStageOrder, b.stage, to)
	}
	b.stage = to
	b.log.WithFields(logrus.Fields{
		"stage":     to,
		"points":    len(b.points),
		"triangles": b.pool.live,
		"flips":     b.flips,
	}).Debug("triangulation stage")
	return nil
}

func (b *builder) run() (*Triangulation, error) {
	if b.opts.Region != nil {
		if err := b.generateBoundaryPoints(*b.opts.Region); err != nil {
			return nil, err
		}
	}
	b.pool = newPool(len(b.points))
	b.inserted = make([]bool, len(b.points))
	b.dropped = make([]bool, len(b.points))

	active, err := b.activePoints()
	if err != nil {
		return nil, err
	}
	if err := b.generateInitialTriangles(active); err != nil {
		return nil, err
	}
	if err := b.advance(StageSeeded); err != nil {
		return nil, err
	}
	if err := b.advance(StageInserting); err != nil {
		return nil, err
	}
	if err := b.triangularizationProcess(active); err != nil {
		return nil, err
	}
	if err := b.advance(StageLegalized); err != nil {
		return nil, err
	}
	dt, err := b.extract()
	if err != nil {
		return nil, err
	}
	if err := b.advance(StageDualExtracted); err != nil {
		return nil, err
	}
	if err := b.advance(StageDone); err != nil {
		return nil, err
	}
	return dt, nil
}

// activePoints lists the points to triangulate. Exactly coincident caller
// sites are rejected; a synthetic point coinciding with another point is dropped.
func (b *builder) activePoints() ([]int, error) {
	order := make([]int, 0, len(b.points))
	for i := range b.points {
		if i < b.numSites && b.redundant(i) {
			continue
		}
		order = append(order, i)
	}
	slices.SortFunc(order, func(i, j int) int {
		if c := comparePoints(&b.points[i], &b.points[j]); c != 0 {
			return c
		}
		return i - j
	})

	for k := 1; k < len(order); k++ {
		i, j := order[k-1], order[k]
		if comparePoints(&b.points[i], &b.points[j]) != 0 || b.dropped[i] {
			continue
		}
		// i < j, so a synthetic j never shadows a site.
		if b.points[j].Kind == KindSite {
			return nil, fmt.Errorf("s2delaunay: %w: sites %d and %d at lat %.9f, lon %.9f",
				ErrDuplicatePoint, i, j, b.points[j].Lat, b.points[j].Lon)
		}
		b.dropped[j] = true
		order[k] = i
	}

	active := make([]int, 0, len(order))
	for i := range b.points {
		if (i < b.numSites && b.redundant(i)) || b.dropped[i] {
			continue
		}
		active = append(active, i)
	}
	if len(active) < 4 {
		return nil, fmt.Errorf("s2delaunay: %w: got %d", ErrInsufficientPoints, len(active))
	}
	return active, nil
}

// generateInitialTriangles seeds the triangulation with a convex hull that
// surrounds the origin, so that its faces tile the sphere. The hull starts
// from the extreme points along a fixed set of directions and grows by the
// active point furthest beyond any face the origin is not strictly beneath.
func (b *builder) generateInitialTriangles(active []int) error {
	cand := b.extremeCandidates(active)
	faces, err := b.initialTetrahedron(cand)
	if err != nil {
		faces, err = b.initialTetrahedron(active)
	}
	if err != nil {
		return err
	}
	h := &seedHull{pts: b.points, faces: faces}
	for _, p := range cand {
		h.add(p)
	}
	for {
		f := h.exposedFace()
		if f < 0 {
			break
		}
		p := h.furthestBeyond(h.faces[f], active)
		if p < 0 {
			return fmt.Errorf("s2delaunay: %w: no point beyond seed face %v", ErrDomainNotCovered, h.faces[f])
		}
		h.add(p)
	}

	used := make(map[int]bool)
	edgeOf := make(map[[2]int]int)
	for _, tri := range h.faces {
		t := b.pool.newTriangle(tri[0], tri[1], tri[2])
		b.seeds = append(b.seeds, t)
		for k, e := range b.pool.triangles[t].E {
			used[tri[k]] = true
			key := [2]int{b.pool.edges[e].Tail, b.pool.edges[e].Head}
			if _, dup := edgeOf[key]; dup {
				return fmt.Errorf("s2delaunay: %w: seed edge %v used twice", ErrTwinMismatch, key)
			}
			edgeOf[key] = e
		}
	}

	for key, e := range edgeOf {
		twin, ok := edgeOf[[2]int{key[1], key[0]}]
		if !ok {
			return fmt.Errorf("s2delaunay: %w: seed edge %v has no twin", ErrTwinMismatch, key)
		}
		if err := b.pool.linkTwins(e, twin); err != nil {
			return err
		}
	}
	if len(b.seeds) != 2*(len(used)-2) {
		return fmt.Errorf("s2delaunay: %w: %d seed faces for %d vertices",
			ErrTwinMismatch, len(b.seeds), len(used))
	}

	rest := make([]int, 0, len(active))
	for _, p := range active {
		if used[p] {
			b.inserted[p] = true
			continue
		}
		rest = append(rest, p)
	}
	return b.distributePointsIntoTriangles([]bucket{{tri: -1, points: rest}})
}

// extremeCandidates returns, for each seed direction, the active point with
// the largest projection on it. Ties keep the lowest index.
func (b *builder) extremeCandidates(active []int) []int {
	var best [len(seedDirections)]int
	var bestDot [len(seedDirections)]float64
	for k := range best {
		best[k] = -1
	}
	for _, p := range active {
		for k, d := range seedDirections {
			if dot := d.Dot(b.points[p].Vector); best[k] < 0 || dot > bestDot[k] {
				best[k], bestDot[k] = p, dot
			}
		}
	}

	out := make([]int, 0, len(best))
	for _, p := range best {
		if p >= 0 && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// distributePointsIntoTriangles drains a worklist of buckets. A bucket whose
// triangle is still a leaf is stored on it; otherwise its points are
// partitioned among the triangle's children and pushed back.
func (b *builder) distributePointsIntoTriangles(work []bucket) error {
	for len(work) > 0 {
		w := work[len(work)-1]
		work = work[:len(work)-1]

		var children []int
		if w.tri < 0 {
			children = b.seeds
		} else {
			tri := &b.pool.triangles[w.tri]
			if tri.leaf {
				tri.remained = append(tri.remained, w.points...)
				h := b.pool.handle(w.tri)
				for _, p := range w.points {
					b.points[p].hint = h
				}
				continue
			}
			children = tri.children
		}
		if len(children) == 0 {
			return fmt.Errorf("s2delaunay: %w: internal triangle %d has no children", ErrBrokenRing, w.tri)
		}

		parts := make([][]int, len(children))
		for _, p := range w.points {
			k := b.childContaining(p, children)
			parts[k] = append(parts[k], p)
		}
		for k, c := range children {
			if len(parts[k]) > 0 {
				work = append(work, bucket{tri: c, points: parts[k]})
			}
		}
	}
	return nil
}

// childContaining picks the first child p is not outside of. Points lost to
// rounding go to the first child; the location walk corrects them later.
func (b *builder) childContaining(p int, children []int) int {
	for k, c := range children {
		if loc, _ := b.locate(p, c); loc != Outside {
			return k
		}
	}
	return 0
}

func (b *builder) locate(p, t int) (Location, int) {
	v := b.pool.triangles[t].V
	return b.points[p].PositionToTriangle(&b.points[v[0]], &b.points[v[1]], &b.points[v[2]], b.opts.Eps)
}

// triangularizationProcess inserts every remaining point, one step per
// point, driving insertion from the triangles that still hold points.
func (b *builder) triangularizationProcess(active []int) error {
	stack := make([]triHandle, 0, len(b.seeds))
	for _, t := range b.seeds {
		if len(b.pool.triangles[t].remained) > 0 {
			stack = append(stack, b.pool.handle(t))
		}
	}

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t, err := b.pool.resolve(h)
		if err != nil {
			continue
		}
		tri := &b.pool.triangles[t]
		if !tri.leaf || len(tri.remained) == 0 {
			continue
		}

		p := tri.findBestCandidatePoint(b.points)
		b.created = b.created[:0]
		if err := b.insertPoint(p); err != nil {
			return err
		}

		if tri := &b.pool.triangles[t]; tri.leaf && len(tri.remained) > 0 {
			stack = append(stack, h)
		}
		for _, c := range b.created {
			if tri := &b.pool.triangles[c]; tri.leaf && len(tri.remained) > 0 {
				stack = append(stack, b.pool.handle(c))
			}
		}
		b.pool.reclaim()
	}

	for _, p := range active {
		if !b.inserted[p] && !b.dropped[p] {
			return fmt.Errorf("s2delaunay: %w: point %d (%s) at lat %.9f, lon %.9f",
				ErrPointNotInserted, p, b.points[p].Kind, b.points[p].Lat, b.points[p].Lon)
		}
	}
	return nil
}

// searchTriangleWithPoint walks from the point's hint triangle across the
// edges the point lies right of, until a triangle not excluding it is found.
func (b *builder) searchTriangleWithPoint(p int) (Location, int, int, error) {
	t, err := b.pool.resolve(b.points[p].hint)
	if err != nil {
		return Outside, -1, -1, fmt.Errorf("s2delaunay: point %d: %w", p, err)
	}
	for range b.pool.live + 1 {
		loc, i := b.locate(p, t)
		if loc != Outside {
			return loc, t, i, nil
		}
		twin := b.pool.edges[b.pool.triangles[t].E[i]].Twin
		if twin < 0 {
			return Outside, -1, -1, fmt.Errorf("s2delaunay: %w: edge %d of triangle %d has no twin",
				ErrTwinMismatch, i, t)
		}
		t = b.pool.edges[twin].Triangle
	}
	return Outside, -1, -1, fmt.Errorf("s2delaunay: %w: point %d at lat %.9f, lon %.9f",
		ErrPointNotLocated, p, b.points[p].Lat, b.points[p].Lon)
}

// insertPoint locates p, splits the triangle (or edge) it falls on and
// restores the Delaunay property around it.
func (b *builder) insertPoint(p int) error {
	loc, t, i, err := b.searchTriangleWithPoint(p)
	if err != nil {
		return err
	}

	var outer []int
	switch loc {
	case OnVertex:
		v := b.pool.triangles[t].V[i]
		if b.points[p].Kind == KindSite && b.points[v].Kind == KindSite {
			return fmt.Errorf("s2delaunay: %w: sites %d and %d at lat %.9f, lon %.9f",
				ErrDuplicatePoint, v, p, b.points[p].Lat, b.points[p].Lon)
		}
		if b.points[p].Kind == KindSite {
			// A synthetic vertex sits where a site belongs; the site cannot
			// replace it without a removal, so the region is unusable.
			return fmt.Errorf("s2delaunay: %w: site %d coincides with synthetic point %d",
				ErrBoundaryTooCoarse, p, v)
		}
		b.dropped[p] = true
		return nil
	case OnBoundary:
		outer, err = b.splitEdge(t, i, p)
	default:
		outer, err = b.splitTriangle(t, p)
	}
	if err != nil {
		return err
	}

	b.inserted[p] = true
	return b.legalizeTriangles(outer)
}

// splitTriangle replaces t = (a, b, c) by (a, b, p), (b, c, p), (c, a, p).
// It returns the edges opposite p.
func (b *builder) splitTriangle(t, p int) ([]int, error) {
	old := b.pool.triangles[t]
	var outerTwins [3]int
	for k, e := range old.E {
		outerTwins[k] = b.pool.edges[e].Twin
	}

	var kids [3]int
	for k := range 3 {
		kids[k] = b.pool.newTriangle(old.V[k], old.V[(k+1)%3], p)
	}
	outer := make([]int, 3)
	for k, c := range kids {
		outer[k] = b.pool.triangles[c].E[0]
		if err := b.pool.linkTwins(outer[k], outerTwins[k]); err != nil {
			return nil, err
		}
		if err := b.pool.checkAndSetTwinEdgeRelationship(c, kids[(k+1)%3]); err != nil {
			return nil, err
		}
	}

	b.pool.retire(t, kids[:]...)
	b.created = append(b.created, kids[:]...)
	return outer, b.redistribute(t)
}

// splitEdge inserts p on edge i of t, splitting t and the triangle across
// the edge into two triangles each. It returns the edges opposite p.
func (b *builder) splitEdge(t, i, p int) ([]int, error) {
	tt := b.pool.triangles[t]
	e := tt.E[i]
	et := b.pool.edges[e].Twin
	if et < 0 {
		return nil, fmt.Errorf("s2delaunay: %w: edge %d has no twin", ErrTwinMismatch, e)
	}
	n := b.pool.edges[et].Triangle
	nt := b.pool.triangles[n]
	j := nt.edgeFrom(b.pool.edges[et].Tail)
	if j < 0 || nt.E[j] != et {
		return nil, fmt.Errorf("s2delaunay: %w: triangle %d does not own edge %d", ErrBrokenRing, n, et)
	}

	u, v, w := tt.V[i], tt.V[(i+1)%3], tt.V[(i+2)%3]
	x := nt.V[(j+2)%3]
	twinOf := func(e int) int { return b.pool.edges[e].Twin }
	// Outer edges: v->w and w->u in t, u->x and x->v in n.
	outerTwins := [4]int{
		twinOf(tt.E[(i+2)%3]),
		twinOf(tt.E[(i+1)%3]),
		twinOf(nt.E[(j+1)%3]),
		twinOf(nt.E[(j+2)%3]),
	}

	kids := [4]int{
		b.pool.newTriangle(w, u, p),
		b.pool.newTriangle(v, w, p),
		b.pool.newTriangle(u, x, p),
		b.pool.newTriangle(x, v, p),
	}
	outer := make([]int, 4)
	for k, c := range kids {
		outer[k] = b.pool.triangles[c].E[0]
		if err := b.pool.linkTwins(outer[k], outerTwins[k]); err != nil {
			return nil, err
		}
	}
	for _, pair := range [4][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}} {
		if err := b.pool.checkAndSetTwinEdgeRelationship(kids[pair[0]], kids[pair[1]]); err != nil {
			return nil, err
		}
	}

	b.pool.retire(t, kids[0], kids[1])
	b.pool.retire(n, kids[2], kids[3])
	b.created = append(b.created, kids[:]...)
	if err := b.redistribute(t); err != nil {
		return nil, err
	}
	return outer, b.redistribute(n)
}

// redistribute hands the unassigned points of retired triangle t to its children.
func (b *builder) redistribute(t int) error {
	tri := &b.pool.triangles[t]
	if len(tri.remained) == 0 {
		return nil
	}
	pts := slices.Clone(tri.remained)
	tri.remained = tri.remained[:0]
	return b.distributePointsIntoTriangles([]bucket{{tri: t, points: pts}})
}

// legalizeTriangles flips edges opposite the inserted point until every
// one of them is locally Delaunay.
func (b *builder) legalizeTriangles(stack []int) error {
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ed := b.pool.edges[e]
		if !b.pool.triangles[ed.Triangle].leaf {
			continue
		}
		if ed.Twin < 0 {
			return fmt.Errorf("s2delaunay: %w: edge %d has no twin", ErrTwinMismatch, e)
		}
		if b.isTriangleLegal(e) {
			continue
		}
		if ed.legalizeCount >= b.opts.MaxLegalizeCount {
			apex := b.pool.edges[ed.Next].Head
			return fmt.Errorf("s2delaunay: %w: edge %d->%d of triangle %d around point %d (lat %.9f, lon %.9f), limit %d",
				ErrLegalizationExceeded, ed.Tail, ed.Head, ed.Triangle, apex,
				b.points[apex].Lat, b.points[apex].Lon, b.opts.MaxLegalizeCount)
		}
		e1, e2, err := b.flip(e)
		if err != nil {
			return err
		}
		stack = append(stack, e1, e2)
	}
	return nil
}

// isTriangleLegal reports whether edge e, opposite the apex p of its
// triangle, is locally Delaunay: the apex q across e must not lie inside
// the circumcircle of (p, u, v). The test is exact; exactly cocircular
// quadrilaterals are decided by a symbolic perturbation that keeps the
// diagonal touching the smallest point.
func (b *builder) isTriangleLegal(e int) bool {
	ed := b.pool.edges[e]
	u, v := ed.Tail, ed.Head
	p := b.pool.edges[ed.Next].Head
	q := b.pool.edges[b.pool.edges[ed.Twin].Next].Head
	if p == q {
		return true
	}

	var inside bool
	switch orient(b.points[p].Vector, b.points[u].Vector, b.points[v].Vector, b.points[q].Vector) {
	case 1:
		inside = true
	case -1:
		inside = false
	default:
		lowest := p
		for _, k := range [...]int{u, v, q} {
			if comparePoints(&b.points[k], &b.points[lowest]) < 0 {
				lowest = k
			}
		}
		inside = lowest == p || lowest == q
	}
	if !inside {
		return true
	}

	// Only a strictly convex quadrilateral can be flipped.
	a, c, d := b.points[p].Point, b.points[u].Point, b.points[v].Point
	qq := b.points[q].Point
	return s2.RobustSign(a, c, qq) != s2.CounterClockwise || s2.RobustSign(a, qq, d) != s2.CounterClockwise
}

// flip swaps the diagonal u-v shared by T = (u, v, p) and N = (v, u, q) for
// p-q, producing (u, q, p) and (q, v, p). It returns the new edges opposite p.
func (b *builder) flip(e int) (int, int, error) {
	ed := b.pool.edges[e]
	T := ed.Triangle
	N := b.pool.edges[ed.Twin].Triangle
	u, v := ed.Tail, ed.Head
	p := b.pool.edges[ed.Next].Head

	nEdge := b.pool.edges[ed.Twin]
	q := b.pool.edges[nEdge.Next].Head
	twinOf := func(e int) int { return b.pool.edges[e].Twin }
	tUQ := twinOf(nEdge.Next)   // u->q in N
	tQV := twinOf(nEdge.Prev)   // q->v in N
	tPU := twinOf(ed.Prev)      // p->u in T
	tVP := twinOf(ed.Next)      // v->p in T
	count := ed.legalizeCount + 1

	t1 := b.pool.newTriangle(u, q, p)
	t2 := b.pool.newTriangle(q, v, p)
	e1, e2 := b.pool.triangles[t1].E, b.pool.triangles[t2].E
	for _, l := range [4][2]int{{e1[0], tUQ}, {e1[2], tPU}, {e2[0], tQV}, {e2[1], tVP}} {
		if err := b.pool.linkTwins(l[0], l[1]); err != nil {
			return -1, -1, err
		}
	}
	if err := b.pool.checkAndSetTwinEdgeRelationship(t1, t2); err != nil {
		return -1, -1, err
	}
	b.pool.edges[e1[0]].legalizeCount = count
	b.pool.edges[e2[0]].legalizeCount = count

	b.pool.retire(T, t1, t2)
	b.pool.retire(N, t1, t2)
	b.created = append(b.created, t1, t2)
	b.flips++
	if err := b.redistribute(T); err != nil {
		return -1, -1, err
	}
	if err := b.redistribute(N); err != nil {
		return -1, -1, err
	}
	return e1[0], e2[0], nil
}
