// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/remapcore/s2voronoi"
	"github.com/remapcore/s2voronoi/s2delaunay"
	"github.com/remapcore/s2voronoi/utils"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero width", Options{Width: 0, Height: 10}},
		{"negative height", Options{Width: 10, Height: -1}},
		{"unknown projection", Options{Width: 10, Height: 10, Projection: "gnomonic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := New(&buf, tt.opts); err == nil {
				t.Errorf("New(%+v) error = nil, want non-nil", tt.opts)
			}
			if buf.Len() != 0 {
				t.Errorf("New(%+v) wrote %d bytes, want none", tt.opts, buf.Len())
			}
		})
	}
}

func TestCanvas_PointToScreen(t *testing.T) {
	view := s2voronoi.Boundary{MinLon: 350, MaxLon: 370, MinLat: -10, MaxLat: 10}
	tests := []struct {
		name     string
		opts     Options
		lon, lat float64
		wantX    int
		wantY    int
	}{
		{"global center", Options{Width: 360, Height: 180}, 0, 0, 180, 90},
		{"global top left", Options{Width: 360, Height: 180}, -180, 90, 0, 0},
		{"global bottom right", Options{Width: 360, Height: 180}, 180, -90, 360, 180},
		{"view across seam", Options{Width: 200, Height: 200, View: &view}, 360, 0, 100, 100},
		{"view corner", Options{Width: 200, Height: 200, View: &view}, 370, -10, 200, 200},
		{"mercator equator", Options{Width: 360, Height: 360, Projection: Mercator}, 0, 0, 180, 180},
		{"mercator pole clamped", Options{Width: 360, Height: 360, Projection: Mercator}, 0, 90, 180, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c, err := New(&buf, tt.opts)
			if err != nil {
				t.Fatalf("New(...) error = %v, want nil", err)
			}
			x, y := c.PointToScreen(tt.lon, tt.lat)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("c.PointToScreen(%v, %v) = (%d, %d), want (%d, %d)", tt.lon, tt.lat, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCanvas_Cells(t *testing.T) {
	b := s2voronoi.Boundary{MinLon: 10, MaxLon: 20, MinLat: 30, MaxLat: 40}
	lons, lats := utils.RegularGridCenters(b.MinLon, b.MaxLon, b.MinLat, b.MaxLat, 5, 5)
	redundant := make([]bool, len(lons))
	redundant[12] = true
	logger, _ := test.NewNullLogger()
	cb, err := s2voronoi.GenerateCellBoundaries(
		s2voronoi.Grid{Lons: lons, Lats: lats, Boundary: b, Redundant: redundant},
		s2voronoi.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("GenerateCellBoundaries(...) error = %v, want nil", err)
	}

	var buf bytes.Buffer
	c, err := New(&buf, Options{Width: 400, Height: 400, View: &b})
	if err != nil {
		t.Fatalf("New(...) error = %v, want nil", err)
	}
	drawn := c.Cells(cb)
	c.Points(lons, lats, SiteStyle)
	c.End()

	if drawn != 24 {
		t.Errorf("c.Cells(...) = %v, want 24", drawn)
	}
	out := buf.String()
	if got := strings.Count(out, "<polygon"); got != drawn {
		t.Errorf("svg has %d polygons, want %d", got, drawn)
	}
	if got := strings.Count(out, "<circle"); got != len(lons) {
		t.Errorf("svg has %d circles, want %d", got, len(lons))
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Errorf("svg is not closed")
	}
}

func TestCanvas_Triangles(t *testing.T) {
	dt, err := s2delaunay.NewTriangulation(utils.GenerateRandomPoints(200, 0))
	if err != nil {
		t.Fatalf("NewTriangulation(...) error = %v, want nil", err)
	}

	var buf bytes.Buffer
	c, err := New(&buf, Options{Width: 1500, Height: 750})
	if err != nil {
		t.Fatalf("New(...) error = %v, want nil", err)
	}
	drawn := c.Triangles(dt)
	c.Vertices(dt)
	c.End()

	// A handful of triangles straddle the antimeridian.
	if drawn == 0 || drawn >= len(dt.Triangles) {
		t.Errorf("c.Triangles(...) = %v, want in (0, %d)", drawn, len(dt.Triangles))
	}
	out := buf.String()
	if got := strings.Count(out, "<polygon"); got != drawn {
		t.Errorf("svg has %d polygons, want %d", got, drawn)
	}
	if got := strings.Count(out, "<circle"); got != len(dt.Vertices) {
		t.Errorf("svg has %d circles, want %d", got, len(dt.Vertices))
	}
}
