// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/remapcore/s2voronoi"
	"github.com/remapcore/s2voronoi/utils"
	"github.com/sirupsen/logrus"
)

// Boundary converts the configured rectangle.
func (b BoundaryConfig) Boundary() s2voronoi.Boundary {
	return s2voronoi.Boundary{MinLon: b.MinLon, MaxLon: b.MaxLon, MinLat: b.MinLat, MaxLat: b.MaxLat}
}

// Centers generates or reads the cell centers.
func (c *Config) Centers() (s2voronoi.Grid, error) {
	g := s2voronoi.Grid{Global: c.Grid.Global}
	if !g.Global {
		g.Boundary = c.Grid.Boundary.Boundary()
	}

	switch c.Grid.Source {
	case SourceRegular:
		b := s2voronoi.Boundary{MinLon: 0, MaxLon: 360, MinLat: -90, MaxLat: 90}
		if !g.Global {
			b = g.Boundary
		}
		g.Lons, g.Lats = utils.RegularGridCenters(b.MinLon, b.MaxLon, b.MinLat, b.MaxLat, c.Grid.NLon, c.Grid.NLat)
	case SourceRandom:
		g.Lons, g.Lats = degrees(utils.GenerateRandomPoints(c.Grid.Count, c.Grid.Seed))
	case SourceFibonacci:
		g.Lons, g.Lats = degrees(utils.GenerateFibonacciPoints(c.Grid.Count))
	case SourceCSV:
		f, err := os.Open(c.Grid.Path)
		if err != nil {
			return g, fmt.Errorf("opening grid file: %w", err)
		}
		defer f.Close()
		g.Lons, g.Lats, g.Redundant, err = ReadCSV(f)
		if err != nil {
			return g, fmt.Errorf("reading grid file %s: %w", c.Grid.Path, err)
		}
	default:
		return g, fmt.Errorf("grid: unknown source %q", c.Grid.Source)
	}
	return g, nil
}

// DiagramOptions maps the triangulation settings onto library options.
func (c *Config) DiagramOptions(log logrus.FieldLogger) []s2voronoi.DiagramOption {
	opts := []s2voronoi.DiagramOption{s2voronoi.WithLogger(log)}
	t := c.Triangulation
	if t.Eps > 0 {
		opts = append(opts, s2voronoi.WithEps(t.Eps))
	}
	if t.MergeTolerance > 0 {
		opts = append(opts, s2voronoi.WithMergeTolerance(s1.Angle(t.MergeTolerance)))
	}
	if t.MaxLegalizeCount > 0 {
		opts = append(opts, s2voronoi.WithMaxLegalizeCount(t.MaxLegalizeCount))
	}
	return opts
}

// ReadCSV reads lon,lat rows with an optional third redundant column
// (true/false or 1/0). A leading header row is skipped. The mask is nil when
// no row carries the third column.
func ReadCSV(r io.Reader) (lons, lats []float64, redundant []bool, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	hasMask := false
	for n := 0; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 2 || len(rec) > 3 {
			return nil, nil, nil, fmt.Errorf("line %d: want 2 or 3 fields, got %d", line, len(rec))
		}

		lon, errLon := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errLon != nil || errLat != nil {
			if n == 0 {
				continue
			}
			return nil, nil, nil, fmt.Errorf("line %d: %w", line, errors.Join(errLon, errLat))
		}
		red := false
		if len(rec) == 3 {
			red, err = strconv.ParseBool(strings.TrimSpace(rec[2]))
			if err != nil {
				return nil, nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			hasMask = true
		}
		lons = append(lons, lon)
		lats = append(lats, lat)
		redundant = append(redundant, red)
	}
	if !hasMask {
		redundant = nil
	}
	return lons, lats, redundant, nil
}

func degrees(points s2.PointVector) (lons, lats []float64) {
	lons = make([]float64, len(points))
	lats = make([]float64, len(points))
	for i, p := range points {
		ll := s2.LatLngFromPoint(p)
		lons[i], lats[i] = ll.Lng.Degrees(), ll.Lat.Degrees()
	}
	return lons, lats
}
