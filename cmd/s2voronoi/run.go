// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/remapcore/s2voronoi"
	"github.com/remapcore/s2voronoi/internal/config"
	"github.com/remapcore/s2voronoi/internal/render"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// cellsOutput is the JSON layout of the cells command. Corner rows are
// padded to MaxVertices with the configured fill value.
type cellsOutput struct {
	NumCells     int         `json:"num_cells"`
	MaxVertices  int         `json:"max_vertices"`
	VertexCounts []int       `json:"vertex_counts"`
	VertexLons   [][]float64 `json:"vertex_lons"`
	VertexLats   [][]float64 `json:"vertex_lats"`
	Areas        []float64   `json:"areas"`
}

// stats summarizes a set of cell boundaries.
type stats struct {
	Cells       int
	Empty       int
	MinVertices int
	MaxVertices int
	TotalArea   float64
	DomainArea  float64
}

// loadAndGenerate loads the config and computes the cell boundaries.
func loadAndGenerate(path string) (*config.Config, s2voronoi.Grid, *s2voronoi.CellBoundaries, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, s2voronoi.Grid{}, nil, fmt.Errorf("loading config: %w", err)
	}
	g, err := cfg.Centers()
	if err != nil {
		return nil, s2voronoi.Grid{}, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"source": cfg.Grid.Source,
		"points": len(g.Lons),
		"global": g.Global,
	}).Info("generating cell boundaries")

	cb, err := s2voronoi.GenerateCellBoundaries(g, cfg.DiagramOptions(logrus.StandardLogger())...)
	if err != nil {
		return nil, s2voronoi.Grid{}, nil, fmt.Errorf("generating cell boundaries: %w", err)
	}
	return cfg, g, cb, nil
}

// create opens path for writing, or returns stdout when path is empty.
func create(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runCells(path string, stdout io.Writer) (err error) {
	cfg, _, cb, err := loadAndGenerate(path)
	if err != nil {
		return err
	}

	lons, lats := cb.Padded(cfg.Output.Fill)
	out := cellsOutput{
		NumCells:     cb.NumCells(),
		MaxVertices:  cb.MaxVertices(),
		VertexCounts: cb.VertexCounts,
		VertexLons:   lons,
		VertexLats:   lats,
		Areas:        cb.Areas(),
	}

	w, closeFn, err := create(cfg.Output.Path, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runRender(path string, stdout io.Writer) (err error) {
	cfg, g, cb, err := loadAndGenerate(path)
	if err != nil {
		return err
	}

	w, closeFn, err := create(cfg.Output.SVG, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()

	opts := render.Options{Width: cfg.Output.Width, Height: cfg.Output.Height}
	if !g.Global {
		opts.View = &g.Boundary
	}
	canvas, err := render.New(w, opts)
	if err != nil {
		return err
	}
	drawn := canvas.Cells(cb)
	if cfg.Output.Triangles {
		dt, err := g.Triangulate(cfg.DiagramOptions(logrus.StandardLogger())...)
		if err != nil {
			return err
		}
		canvas.Triangles(dt)
		canvas.Vertices(dt)
	} else {
		canvas.Points(g.Lons, g.Lats, render.SiteStyle)
	}
	canvas.End()

	logrus.WithField("cells", drawn).Info("rendered")
	return nil
}

func runStats(path string, log logrus.FieldLogger) error {
	_, g, cb, err := loadAndGenerate(path)
	if err != nil {
		return err
	}
	s := computeStats(g, cb)
	log.WithFields(logrus.Fields{
		"cells":        s.Cells,
		"empty":        s.Empty,
		"min_vertices": s.MinVertices,
		"max_vertices": s.MaxVertices,
		"total_area":   s.TotalArea,
		"domain_area":  s.DomainArea,
		"coverage":     s.TotalArea / s.DomainArea,
	}).Info("cell statistics")
	return nil
}

func computeStats(g s2voronoi.Grid, cb *s2voronoi.CellBoundaries) stats {
	s := stats{
		Cells:       cb.NumCells(),
		MinVertices: math.MaxInt,
		MaxVertices: cb.MaxVertices(),
		TotalArea:   floats.Sum(cb.Areas()),
		DomainArea:  4 * math.Pi,
	}
	if !g.Global {
		s.DomainArea = g.Boundary.Area()
	}
	for _, n := range cb.VertexCounts {
		if n == 0 {
			s.Empty++
			continue
		}
		s.MinVertices = min(s.MinVertices, n)
	}
	if s.MinVertices == math.MaxInt {
		s.MinVertices = 0
	}
	return s
}
