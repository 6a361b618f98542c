// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remapcore/s2voronoi"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const regionalConfig = `
grid:
  source: regular
  global: false
  nlon: 4
  nlat: 3
  boundary:
    min_lon: 10
    max_lon: 14
    min_lat: 30
    max_lat: 33
`

const globalConfig = `
[grid]
source = "fibonacci"
count = 200

[output]
triangles = true
width = 600
height = 300
`

func TestCellsCmd(t *testing.T) {
	cfg := writeConfig(t, "run.yaml", regionalConfig)
	out := execute(t, "cells", cfg)

	var got cellsOutput
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("json.Unmarshal(...) error = %v, output:\n%s", err, out)
	}
	if got.NumCells != 12 || len(got.VertexCounts) != 12 || len(got.VertexLons) != 12 {
		t.Fatalf("cells output has %d cells (%d counts, %d rows), want 12",
			got.NumCells, len(got.VertexCounts), len(got.VertexLons))
	}
	for i, n := range got.VertexCounts {
		// Cells on the top and bottom rows follow the boundary parallels.
		if n < 4 {
			t.Errorf("cell %d has %d corners, want >= 4", i, n)
		}
		if len(got.VertexLons[i]) != got.MaxVertices || len(got.VertexLats[i]) != got.MaxVertices {
			t.Errorf("cell %d rows have %d/%d entries, want %d", i, len(got.VertexLons[i]), len(got.VertexLats[i]), got.MaxVertices)
		}
	}
}

func TestCellsCmd_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cells.json")
	cfg := writeConfig(t, "run.yaml", regionalConfig+"output:\n  path: "+path+"\n")

	if out := execute(t, "cells", cfg); len(out) != 0 {
		t.Errorf("cells wrote %d bytes to stdout, want none", len(out))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile(%q) error = %v", path, err)
	}
	var got cellsOutput
	if err := json.Unmarshal(data, &got); err != nil || got.NumCells != 12 {
		t.Errorf("cells file holds %d cells (err %v), want 12", got.NumCells, err)
	}
}

func TestRenderCmd(t *testing.T) {
	cfg := writeConfig(t, "run.toml", globalConfig)
	out := string(execute(t, "render", cfg))

	if !strings.HasPrefix(out, "<?xml") || !strings.Contains(out, "</svg>") {
		t.Fatalf("render output is not an SVG document:\n%.200s", out)
	}
	if got := strings.Count(out, "<polygon"); got <= 200 {
		t.Errorf("svg has %d polygons, want cells plus triangles (> 200)", got)
	}
}

func TestRunStats(t *testing.T) {
	logrus.SetOutput(io.Discard)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	cfg := writeConfig(t, "run.yaml", regionalConfig)
	logger, hook := test.NewNullLogger()
	if err := runStats(cfg, logger); err != nil {
		t.Fatalf("runStats(%q) error = %v, want nil", cfg, err)
	}
	e := hook.LastEntry()
	if e == nil || e.Message != "cell statistics" {
		t.Fatalf("last log entry = %v, want cell statistics", e)
	}
	if e.Data["cells"] != 12 || e.Data["empty"] != 0 || e.Data["min_vertices"] != 4 {
		t.Errorf("stats fields = %v, want 12 cells, 0 empty, 4 min vertices", e.Data)
	}
	if cov := e.Data["coverage"].(float64); math.Abs(cov-1) > 1e-6 {
		t.Errorf("coverage = %v, want ~1", cov)
	}
}

func TestComputeStats(t *testing.T) {
	g := s2voronoi.Grid{Global: true}
	cb := &s2voronoi.CellBoundaries{VertexCounts: []int{0, 0}, Offsets: []int{0, 0}}
	s := computeStats(g, cb)
	if s.Cells != 2 || s.Empty != 2 || s.MinVertices != 0 || s.DomainArea != 4*math.Pi {
		t.Errorf("computeStats(...) = %+v, want 2 empty cells on the sphere", s)
	}
}

func TestCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no config", []string{"cells"}},
		{"missing config", []string{"stats", filepath.Join(t.TempDir(), "none.yaml")}},
		{"bad source", []string{"render", writeConfig(t, "bad.yaml", "grid:\n  source: hexagons\n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := rootCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			if err := cmd.Execute(); err == nil {
				t.Errorf("s2voronoi %v error = nil, want non-nil", tt.args)
			}
		})
	}
}

// Helpers

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	logrus.SetOutput(io.Discard)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("s2voronoi %v error = %v, want nil", args, err)
	}
	return out.Bytes()
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v", path, err)
	}
	return path
}
