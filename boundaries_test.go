// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2voronoi

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/google/go-cmp/cmp"
	"github.com/remapcore/s2voronoi/s2delaunay"
	"github.com/remapcore/s2voronoi/utils"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/floats"
)

func TestGenerateCellBoundaries_InvalidInput(t *testing.T) {
	lons, lats := utils.RegularGridCenters(10, 20, 30, 40, 4, 4)
	r := Boundary{MinLon: 10, MaxLon: 20, MinLat: 30, MaxLat: 40}
	badLat := append([]float64(nil), lats...)
	badLat[3] = math.NaN()

	tests := []struct {
		name    string
		g       Grid
		wantErr error
	}{
		{"length mismatch", Grid{Lons: lons, Lats: lats[:3], Boundary: r}, nil},
		{"redundant mismatch", Grid{Lons: lons, Lats: lats, Boundary: r, Redundant: []bool{true}}, nil},
		{"nan latitude", Grid{Lons: lons, Lats: badLat, Boundary: r}, s2delaunay.ErrInvalidCoordinate},
		{"missing boundary", Grid{Lons: lons, Lats: lats}, s2delaunay.ErrInvalidBoundary},
		{"outside boundary", Grid{Lons: lons, Lats: lats, Boundary: Boundary{MinLon: 10, MaxLon: 15, MinLat: 30, MaxLat: 40}},
			s2delaunay.ErrPointOutsideRegion},
		{"too few global", Grid{Lons: lons[:3], Lats: lats[:3], Global: true}, s2delaunay.ErrInsufficientPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := GenerateCellBoundaries(tt.g)
			if err == nil {
				t.Fatalf("GenerateCellBoundaries(...) error = nil, want non-nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("GenerateCellBoundaries(...) error = %v, want %v", err, tt.wantErr)
			}
			if cb != nil {
				t.Errorf("GenerateCellBoundaries(...) = %v, want nil on error", cb)
			}
		})
	}
}

func TestGenerateCellBoundaries_Global(t *testing.T) {
	g := fibonacciGrid(500)
	cb, err := GenerateCellBoundaries(g)
	if err != nil {
		t.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
	}
	if got := cb.NumCells(); got != len(g.Lons) {
		t.Fatalf("cb.NumCells() = %v, want %v", got, len(g.Lons))
	}
	if got := cb.TotalArea(); math.Abs(got-4*math.Pi) > 1e-9 {
		t.Errorf("cb.TotalArea() = %v, want %v", got, 4*math.Pi)
	}

	offset := 0
	for i := range cb.NumCells() {
		if cb.Offsets[i] != offset {
			t.Errorf("cb.Offsets[%d] = %v, want %v", i, cb.Offsets[i], offset)
		}
		if cb.VertexCounts[i] < 3 {
			t.Errorf("cb.VertexCounts[%d] = %v, want >= 3", i, cb.VertexCounts[i])
		}
		offset += cb.VertexCounts[i]

		lons, _ := cb.Cell(i)
		for k, lon := range lons {
			if math.Abs(lon-g.Lons[i]) > 180 {
				t.Errorf("cell %d corner %d lon %v is more than 180 from site lon %v", i, k, lon, g.Lons[i])
			}
		}
	}
	if offset != len(cb.VertexLons) || offset != len(cb.VertexLats) {
		t.Errorf("corner arrays hold %d/%d entries, want %d", len(cb.VertexLons), len(cb.VertexLats), offset)
	}
}

// Cells of a regular grid reproduce the grid cells: four corners half a
// spacing away from the center in each direction.
func TestGenerateCellBoundaries_RegularGridRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		b          Boundary
		nlon, nlat int
	}{
		{"mid latitudes", Boundary{MinLon: 10, MaxLon: 20, MinLat: 30, MaxLat: 40}, 10, 10},
		{"across seam", Boundary{MinLon: 350, MaxLon: 370, MinLat: -10, MaxLat: 10}, 20, 20},
		{"southern", Boundary{MinLon: 200, MaxLon: 206, MinLat: -50, MaxLat: -44}, 12, 6},
	}
	const tol = 5e-3

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lons, lats := utils.RegularGridCenters(tt.b.MinLon, tt.b.MaxLon, tt.b.MinLat, tt.b.MaxLat, tt.nlon, tt.nlat)
			cb, err := GenerateCellBoundaries(Grid{Lons: lons, Lats: lats, Boundary: tt.b})
			if err != nil {
				t.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
			}
			dlon := tt.b.Width() / float64(tt.nlon)
			dlat := tt.b.Height() / float64(tt.nlat)

			for i := range cb.NumCells() {
				cl, ct := cb.Cell(i)
				// Corners beyond the four grid corners run along the boundary parallels.
				extra := 0
				for k := range ct {
					if math.Abs(ct[k]-tt.b.MinLat) > 1e-9 && math.Abs(ct[k]-tt.b.MaxLat) > 1e-9 {
						extra++
					}
				}
				if len(cl) < 4 || extra > 4 {
					t.Errorf("cell %d at (%v, %v) has %d corners, %d off the boundary parallels", i, lons[i], lats[i], len(cl), extra)
					continue
				}
				for _, want := range [4][2]float64{
					{lons[i] - dlon/2, lats[i] - dlat/2},
					{lons[i] + dlon/2, lats[i] - dlat/2},
					{lons[i] + dlon/2, lats[i] + dlat/2},
					{lons[i] - dlon/2, lats[i] + dlat/2},
				} {
					found := false
					for k := range cl {
						found = found || (math.Abs(cl[k]-want[0]) < tol && math.Abs(ct[k]-want[1]) < tol)
					}
					if !found {
						t.Errorf("cell %d: corner (%v, %v) not in %v / %v", i, want[0], want[1], cl, ct)
					}
				}
				if lo, hi := floats.Min(cl), floats.Max(cl); lo < tt.b.MinLon-tol || hi > tt.b.MaxLon+tol {
					t.Errorf("cell %d corner lons [%v, %v] leave [%v, %v]", i, lo, hi, tt.b.MinLon, tt.b.MaxLon)
				}
				if lo, hi := floats.Min(ct), floats.Max(ct); lo < tt.b.MinLat-1e-9 || hi > tt.b.MaxLat+1e-9 {
					t.Errorf("cell %d corner lats [%v, %v] leave [%v, %v]", i, lo, hi, tt.b.MinLat, tt.b.MaxLat)
				}
			}

			if got, want := cb.TotalArea(), tt.b.Area(); math.Abs(got-want) > 1e-6*want {
				t.Errorf("cb.TotalArea() = %v, want %v", got, want)
			}
		})
	}
}

// A few sites scattered over a large region leave long cell edges along the
// boundary; the cells must still tile the region.
func TestGenerateCellBoundaries_SparseArea(t *testing.T) {
	tests := []struct {
		b  Boundary
		ns []int
	}{
		{Boundary{MinLon: 0, MaxLon: 170, MinLat: -80, MaxLat: 80}, []int{10, 50}},
		{Boundary{MinLon: 10, MaxLon: 70, MinLat: 20, MaxLat: 60}, []int{5, 10, 50}},
		{Boundary{MinLon: -30, MaxLon: 30, MinLat: -60, MaxLat: -15}, []int{5, 10, 50}},
		{Boundary{MinLon: 300, MaxLon: 420, MinLat: -20, MaxLat: 50}, []int{5, 10, 50}},
	}
	for _, tt := range tests {
		b := tt.b
		for _, n := range tt.ns {
			for seed := range int64(4) {
				t.Run(fmt.Sprintf("%v/%d/%d", b, n, seed), func(t *testing.T) {
					g := randomGridIn(b, n, seed)
					cb, err := GenerateCellBoundaries(g)
					if err != nil {
						t.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
					}
					if got, want := cb.TotalArea(), b.Area(); math.Abs(got-want) > 1e-5*want {
						t.Errorf("cb.TotalArea() = %v, want %v (relative error %.2e)", got, want, math.Abs(got-want)/want)
					}
					for i, a := range cb.Areas() {
						if a <= 0 {
							t.Errorf("cell %d area = %v, want > 0", i, a)
						}
						_, ct := cb.Cell(i)
						if lo, hi := floats.Min(ct), floats.Max(ct); lo < b.MinLat-1e-9 || hi > b.MaxLat+1e-9 {
							t.Errorf("cell %d corner lats [%v, %v] leave [%v, %v]", i, lo, hi, b.MinLat, b.MaxLat)
						}
					}
				})
			}
		}
	}
}

func TestExtractVertexCoordinateValues_DegenerateCell(t *testing.T) {
	// Site 1 is in the triangulation but its ring collapsed to two corners.
	d := &Diagram{
		Sites: s2.PointVector{
			s2.PointFromLatLng(s2.LatLngFromDegrees(0, 0)),
			s2.PointFromLatLng(s2.LatLngFromDegrees(0, 10)),
		},
		Vertices: s2.PointVector{
			s2.PointFromLatLng(s2.LatLngFromDegrees(-1, -1)),
			s2.PointFromLatLng(s2.LatLngFromDegrees(-1, 1)),
			s2.PointFromLatLng(s2.LatLngFromDegrees(1, 0)),
			s2.PointFromLatLng(s2.LatLngFromDegrees(-1, 9)),
			s2.PointFromLatLng(s2.LatLngFromDegrees(1, 11)),
		},
		CellVertices:      []int{0, 1, 2, 3, 4},
		CellVertexOffsets: []int{0, 3, 5},
	}
	g := Grid{Lons: []float64{0, 10}, Lats: []float64{0, 0}, Global: true}

	_, err := extractVertexCoordinateValues(d, g, []bool{true, true}, defaultMergeTolerance)
	if !errors.Is(err, ErrDegenerateCell) {
		t.Fatalf("extractVertexCoordinateValues(...) error = %v, want %v", err, ErrDegenerateCell)
	}

	// A site left out of the triangulation gets no corners instead.
	cb, err := extractVertexCoordinateValues(d, g, []bool{true, false}, defaultMergeTolerance)
	if err != nil {
		t.Fatalf("extractVertexCoordinateValues(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff([]int{3, 0}, cb.VertexCounts); diff != "" {
		t.Errorf("cb.VertexCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateCellBoundaries_Redundant(t *testing.T) {
	b := Boundary{MinLon: 10, MaxLon: 20, MinLat: 30, MaxLat: 40}
	lons, lats := utils.RegularGridCenters(b.MinLon, b.MaxLon, b.MinLat, b.MaxLat, 10, 10)
	redundant := make([]bool, len(lons))
	redundant[44], redundant[45], redundant[77] = true, true, true
	// A redundant center may lie anywhere.
	lons[45], lats[45] = 100, -60

	cb, err := GenerateCellBoundaries(Grid{Lons: lons, Lats: lats, Boundary: b, Redundant: redundant})
	if err != nil {
		t.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
	}
	for i, r := range redundant {
		switch {
		case r && cb.VertexCounts[i] != 0:
			t.Errorf("redundant cell %d has %d corners, want 0", i, cb.VertexCounts[i])
		case r && cb.Areas()[i] != 0:
			t.Errorf("redundant cell %d area = %v, want 0", i, cb.Areas()[i])
		case !r && cb.VertexCounts[i] < 3:
			t.Errorf("cell %d has %d corners, want >= 3", i, cb.VertexCounts[i])
		}
	}
	// The neighbors of the missing centers absorb their area.
	if got, want := cb.TotalArea(), b.Area(); math.Abs(got-want) > 1e-6*want {
		t.Errorf("cb.TotalArea() = %v, want %v", got, want)
	}
}

func TestGenerateCellBoundaries_ClampWarning(t *testing.T) {
	g := fibonacciGrid(100)
	g.Lats = append(g.Lats, 90+1e-7)
	g.Lons = append(g.Lons, 0)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cb, err := GenerateCellBoundaries(g, WithLogger(logger))
	if err != nil {
		t.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
	}
	if cb.VertexCounts[100] < 3 {
		t.Errorf("polar cell has %d corners, want >= 3", cb.VertexCounts[100])
	}

	var warnings, debugs int
	for _, e := range hook.AllEntries() {
		switch e.Level {
		case logrus.WarnLevel:
			warnings++
			if e.Data["point"] != 100 {
				t.Errorf("warning for point %v, want 100", e.Data["point"])
			}
		case logrus.DebugLevel:
			debugs++
		}
	}
	if warnings != 1 {
		t.Errorf("logged %d warnings, want 1", warnings)
	}
	if debugs == 0 {
		t.Errorf("logged no debug entries, want stage and summary entries")
	}
}

func TestGrid_Triangulate(t *testing.T) {
	b := Boundary{MinLon: 10, MaxLon: 20, MinLat: 30, MaxLat: 40}
	lons, lats := utils.RegularGridCenters(b.MinLon, b.MaxLon, b.MinLat, b.MaxLat, 6, 6)
	g := Grid{Lons: lons, Lats: lats, Boundary: b}

	dt, err := g.Triangulate()
	if err != nil {
		t.Fatalf("g.Triangulate() error = %v, want nil", err)
	}
	if err := dt.Validate(); err != nil {
		t.Errorf("dt.Validate() = %v, want nil", err)
	}
	if dt.NumSites != len(lons) || len(dt.Vertices) <= len(lons) {
		t.Errorf("dt has %d sites of %d vertices, want %d sites plus synthetic points",
			dt.NumSites, len(dt.Vertices), len(lons))
	}
	for i := range dt.NumSites {
		ll := s2.LatLngFromPoint(dt.Vertices[i])
		if math.Abs(ll.Lat.Degrees()-lats[i]) > 1e-9 || math.Abs(ll.Lng.Degrees()-lons[i]) > 1e-9 {
			t.Errorf("dt.Vertices[%d] = %v, want (%v, %v)", i, ll, lats[i], lons[i])
		}
	}

	if _, err := g.Triangulate(WithEps(-1)); err == nil {
		t.Errorf("g.Triangulate(WithEps(-1)) error = nil, want non-nil")
	}
}

func TestCellBoundaries_Padded(t *testing.T) {
	cb := &CellBoundaries{
		VertexLons:   []float64{0, 1, 1, 5, 6, 7, 6},
		VertexLats:   []float64{0, 0, 1, 5, 5, 6, 7},
		VertexCounts: []int{3, 0, 4},
		Offsets:      []int{0, 3, 3},
		areas:        []float64{0.25, 0, 0.5},
	}
	if got := cb.MaxVertices(); got != 4 {
		t.Errorf("cb.MaxVertices() = %v, want 4", got)
	}
	if got := cb.TotalArea(); got != 0.75 {
		t.Errorf("cb.TotalArea() = %v, want 0.75", got)
	}

	lons, lats := cb.Padded(-999)
	wantLons := [][]float64{{0, 1, 1, -999}, {-999, -999, -999, -999}, {5, 6, 7, 6}}
	wantLats := [][]float64{{0, 0, 1, -999}, {-999, -999, -999, -999}, {5, 5, 6, 7}}
	if diff := cmp.Diff(wantLons, lons); diff != "" {
		t.Errorf("cb.Padded() lons mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantLats, lats); diff != "" {
		t.Errorf("cb.Padded() lats mismatch (-want +got):\n%s", diff)
	}
}

func TestCellBoundaries_CellOutOfRange(t *testing.T) {
	cb := &CellBoundaries{VertexCounts: []int{0}, Offsets: []int{0}}
	for _, i := range []int{-1, 1} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("cb.Cell(%d) did not panic", i)
				}
			}()
			cb.Cell(i)
		})
	}
}

// Benchmarks

func BenchmarkGenerateCellBoundaries(b *testing.B) {
	sizes := []int{10, 50, 100}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("Grid%dx%d", n, n), func(b *testing.B) {
			bound := Boundary{MinLon: 0, MaxLon: 40, MinLat: -20, MaxLat: 20}
			lons, lats := utils.RegularGridCenters(bound.MinLon, bound.MaxLon, bound.MinLat, bound.MaxLat, n, n)
			logger, _ := test.NewNullLogger()

			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				_, err := GenerateCellBoundaries(Grid{Lons: lons, Lats: lats, Boundary: bound}, WithLogger(logger))
				if err != nil {
					b.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
				}
			}
		})
	}
}

// Helpers

func randomGridIn(b Boundary, n int, seed int64) Grid {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	g := Grid{Boundary: b, Lons: make([]float64, n), Lats: make([]float64, n)}
	for i := range n {
		g.Lons[i] = b.MinLon + random.Float64()*b.Width()
		g.Lats[i] = b.MinLat + random.Float64()*b.Height()
	}
	return g
}

func fibonacciGrid(n int) Grid {
	g := Grid{Global: true, Lons: make([]float64, n), Lats: make([]float64, n)}
	for i, p := range utils.GenerateFibonacciPoints(n) {
		ll := s2.LatLngFromPoint(p)
		g.Lons[i], g.Lats[i] = ll.Lng.Degrees(), ll.Lat.Degrees()
	}
	return g
}
