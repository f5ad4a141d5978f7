package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/vista/am"
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/projection"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const chainDataset = `{
  "schema_version": "1.0.0",
  "nodes": [
    {"id": "m1", "type": "memory", "timestamp": "2025-01-01T00:00:00Z"},
    {"id": "m2", "type": "memory", "timestamp": "2025-01-01T01:00:00Z"},
    {"id": "p1", "type": "neural_pattern", "timestamp": "2025-01-01T02:00:00Z"},
    {"id": "m3", "type": "memory", "timestamp": "2025-01-01T03:00:00Z"},
    {"id": "a1", "type": "agent"}
  ],
  "links": [
    {"source": "m1", "target": "m2", "type": "related"},
    {"source": "m2", "target": "p1", "type": "pattern"},
    {"source": "p1", "target": "m3", "type": "related"},
    {"source": "a1", "target": "m1", "type": "created"}
  ]
}`

func testConfig(t *testing.T) *am.Config {
	t.Helper()
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(chainDataset), 0o644))
	return path
}

func loadChain(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := loadDataset(context.Background(), am.DatasetConfig{Path: writeDataset(t)}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return g
}

func TestLoadDataset(t *testing.T) {
	g := loadChain(t)
	assert.Len(t, g.Nodes, 5)
	assert.Len(t, g.Links, 4)

	_, err := loadDataset(context.Background(), am.DatasetConfig{Path: "x", Driver: "postgres"}, zap.NewNop().Sugar())
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestDatasetOverrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Path = ""
	assert.True(t, errors.IsInvalidConfig(datasetOverrides{}.apply(cfg)))

	require.NoError(t, datasetOverrides{path: "mem.db", driver: am.DriverSQLite}.apply(cfg))
	assert.Equal(t, "mem.db", cfg.Dataset.Path)
	assert.Equal(t, am.DriverSQLite, cfg.Dataset.Driver)
}

func TestProjectBuiltinModes(t *testing.T) {
	tests := []struct {
		mode   projection.Mode
		layers []string
	}{
		{projection.ModeFlat, []string{"links", "nodes"}},
		{projection.ModeLayered, []string{"depth_planes", "links", "nodes"}},
		{projection.ModeSpherical, []string{"links", "nodes", "sphere_shell"}},
		{projection.ModeHyperbolic, []string{"disk_boundary", "geodesics", "nodes"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := testConfig(t)
			g := loadChain(t)

			result, err := project(context.Background(), g, cfg, tt.mode, DefaultProjectTicks)
			require.NoError(t, err)

			assert.Equal(t, tt.mode, result.Mode)
			assert.True(t, result.Settled)
			assert.Less(t, result.Ticks, DefaultProjectTicks)
			assert.Equal(t, tt.layers, result.Layers)
			require.Len(t, result.Nodes, 5)
			for _, n := range result.Nodes {
				assert.False(t, math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z), n.ID)
			}
		})
	}
}

func TestProjectPoincareStaysInDisk(t *testing.T) {
	cfg := testConfig(t)
	result, err := project(context.Background(), loadChain(t), cfg, projection.ModeHyperbolic, DefaultProjectTicks)
	require.NoError(t, err)

	assert.Greater(t, result.GeodesicEdges, 0)
	assert.Equal(t, cfg.View.DiskRadius, result.DiskRadius)
	for _, n := range result.Nodes {
		assert.LessOrEqual(t, math.Hypot(n.X, n.Y), cfg.View.DiskRadius+1e-6, n.ID)
		assert.Zero(t, n.Z)
	}
}

func TestProjectUnknownMode(t *testing.T) {
	_, err := project(context.Background(), loadChain(t), testConfig(t), "tda", DefaultProjectTicks)
	assert.True(t, errors.IsUnknownMode(err))
}

func TestWriteProjection(t *testing.T) {
	p := &Projection{
		Mode:    projection.ModeLayered,
		Ticks:   12,
		Settled: true,
		Layers:  []string{"nodes"},
		Nodes: []ProjectedNode{
			{ID: "a", Type: "memory", X: 1, Y: 2, Z: -3, Visible: true},
			{ID: "b", Type: "agent", X: 4, Y: 5, Z: 0, Visible: true},
		},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeProjection(&buf, p, "json", 0))
		var got Projection
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, *p, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeProjection(&buf, p, "yaml", 0))
		var got Projection
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, *p, got)
	})

	t.Run("table limit", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeProjection(&buf, p, "table", 1))
		assert.Contains(t, buf.String(), "2 nodes after 12 ticks (settled)")
		assert.Contains(t, buf.String(), "... 1 more")
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, writeProjection(&bytes.Buffer{}, p, "csv", 0))
	})
}

func TestWriteConfig(t *testing.T) {
	cfg := testConfig(t)
	for _, format := range []string{"toml", "json", "yaml"} {
		var buf bytes.Buffer
		require.NoError(t, writeConfig(&buf, cfg, format), format)
		assert.NotEmpty(t, buf.String(), format)
	}
	assert.Error(t, writeConfig(&bytes.Buffer{}, cfg, "ini"))
}

func TestWhereTableOrdersBySource(t *testing.T) {
	data := whereTable([]am.SettingInfo{
		{Key: "view.mode", Value: "3d", Source: am.SourceEnvironment},
		{Key: "physics.repulsion", Value: 300, Source: am.SourceDefault},
		{Key: "dataset.path", Value: "g.json", Source: am.SourceProject, SourcePath: "/p/am.toml"},
	})

	require.Len(t, data, 4)
	assert.Equal(t, []string{"Source", "Key", "Value", "From"}, data[0])
	assert.Equal(t, "default", data[1][0])
	assert.Equal(t, []string{"project", "dataset.path", "g.json", "/p/am.toml"}, data[2])
	assert.Equal(t, "environment", data[3][0])
}
