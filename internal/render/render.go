// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package render draws triangulations and cell boundaries as SVG.
package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
	"github.com/remapcore/s2voronoi"
	"github.com/remapcore/s2voronoi/s2delaunay"
)

const (
	PolygonStyle  = "fill:rgb(255,255,255);stroke:rgb(170,170,170);stroke-width:1;stroke-opacity:1.0"
	TriangleStyle = "fill:none;stroke:rgb(120,160,220);stroke-width:1;stroke-opacity:0.8"
	SiteStyle     = "fill:rgb(255,0,0)"
	GhostStyle    = "fill:rgb(0,0,255)"

	// Mercator diverges at the poles.
	maxMercatorLat = 85
)

// Projection names accepted by Options.
const (
	PlateCarree = "platecarree"
	Mercator    = "mercator"
)

// Options describe the image. A nil View shows the whole sphere.
type Options struct {
	Width, Height int
	Projection    string
	View          *s2voronoi.Boundary
}

// Canvas maps lon/lat degrees onto an SVG image.
type Canvas struct {
	svg  *svg.SVG
	proj s2.Projection
	opts Options

	// view bounds in projected coordinates
	lo, hi r2.Point
}

// New starts an image on w. Call End to finish it.
func New(w io.Writer, opts Options) (*Canvas, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render: image size %d x %d must be positive", opts.Width, opts.Height)
	}
	view := s2voronoi.Boundary{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}
	if opts.View != nil {
		view = *opts.View
	}

	c := &Canvas{opts: opts}
	switch opts.Projection {
	case "", PlateCarree:
		c.proj = s2.NewPlateCarreeProjection(180)
	case Mercator:
		c.proj = s2.NewMercatorProjection(180)
		view.MinLat = max(view.MinLat, -maxMercatorLat)
		view.MaxLat = min(view.MaxLat, maxMercatorLat)
	default:
		return nil, fmt.Errorf("render: unknown projection %q", opts.Projection)
	}
	c.lo = c.project(view.MinLon, view.MinLat)
	c.hi = c.project(view.MaxLon, view.MaxLat)

	c.svg = svg.New(w)
	c.svg.Start(opts.Width, opts.Height)
	c.svg.Rect(0, 0, opts.Width, opts.Height, "fill:rgb(255,255,255)")
	return c, nil
}

func (c *Canvas) project(lon, lat float64) r2.Point {
	if c.opts.Projection == Mercator {
		lat = max(-maxMercatorLat, min(maxMercatorLat, lat))
	}
	return c.proj.FromLatLng(s2.LatLngFromDegrees(lat, lon))
}

// PointToScreen returns the pixel position of lon/lat degrees.
func (c *Canvas) PointToScreen(lon, lat float64) (int, int) {
	p := c.project(lon, lat)
	x := (p.X - c.lo.X) / (c.hi.X - c.lo.X)
	y := (c.hi.Y - p.Y) / (c.hi.Y - c.lo.Y)
	return int(math.Round(x * float64(c.opts.Width))), int(math.Round(y * float64(c.opts.Height)))
}

func (c *Canvas) polygon(lons, lats []float64, style string) {
	xs := make([]int, len(lons))
	ys := make([]int, len(lons))
	for i := range lons {
		xs[i], ys[i] = c.PointToScreen(lons[i], lats[i])
	}
	c.svg.Polygon(xs, ys, style)
}

// Cells draws every cell with at least three corners and returns how many
// were drawn.
func (c *Canvas) Cells(cb *s2voronoi.CellBoundaries) int {
	drawn := 0
	for i := range cb.NumCells() {
		lons, lats := cb.Cell(i)
		if len(lons) < 3 {
			continue
		}
		c.polygon(lons, lats, PolygonStyle)
		drawn++
	}
	return drawn
}

// Triangles draws the triangles of dt and returns how many were drawn.
// Triangles crossing the antimeridian are skipped.
func (c *Canvas) Triangles(dt *s2delaunay.Triangulation) int {
	drawn := 0
	lons := make([]float64, 3)
	lats := make([]float64, 3)
	for _, tri := range dt.Triangles {
		draw := true
		for k, id := range tri {
			ll := s2.LatLngFromPoint(dt.Vertices[id])
			lons[k], lats[k] = ll.Lng.Degrees(), ll.Lat.Degrees()
			if math.Abs(lons[k]-lons[0]) > 180 {
				draw = false
				break
			}
		}
		if draw {
			c.polygon(lons, lats, TriangleStyle)
			drawn++
		}
	}
	return drawn
}

// Points draws a dot per lon/lat pair.
func (c *Canvas) Points(lons, lats []float64, style string) {
	for i := range lons {
		x, y := c.PointToScreen(lons[i], lats[i])
		c.svg.Circle(x, y, 3, style)
	}
}

// Vertices draws the vertices of dt, caller sites and synthetic points in
// different styles.
func (c *Canvas) Vertices(dt *s2delaunay.Triangulation) {
	for i, p := range dt.Vertices {
		ll := s2.LatLngFromPoint(p)
		style := SiteStyle
		if !dt.IsSite(i) {
			style = GhostStyle
		}
		x, y := c.PointToScreen(ll.Lng.Degrees(), ll.Lat.Degrees())
		c.svg.Circle(x, y, 3, style)
	}
}

// End closes the image.
func (c *Canvas) End() {
	c.svg.End()
}
