package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/teranos/vista/errors"
	"gopkg.in/yaml.v3"
)

// Format identifies a dataset file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// datasetFile is the on-disk dataset layout. Links reference nodes by ID so
// files stay editable by hand; indices are assigned at load.
type datasetFile struct {
	SchemaVersion string     `json:"schema_version" yaml:"schema_version"`
	Nodes         []fileNode `json:"nodes" yaml:"nodes"`
	Links         []fileLink `json:"links" yaml:"links"`
}

type fileNode struct {
	ID           string                 `json:"id" yaml:"id"`
	Type         string                 `json:"type" yaml:"type"`
	Label        string                 `json:"label" yaml:"label"`
	Timestamp    *time.Time             `json:"timestamp" yaml:"timestamp"`
	MemoryType   string                 `json:"memory_type" yaml:"memory_type"`
	Domain       string                 `json:"domain" yaml:"domain"`
	Category     string                 `json:"category" yaml:"category"`
	AgentID      string                 `json:"agent_id" yaml:"agent_id"`
	Quality      *float64               `json:"quality" yaml:"quality"`
	Confidence   *float64               `json:"confidence" yaml:"confidence"`
	HasEmbedding bool                   `json:"has_embedding" yaml:"has_embedding"`
	Visible      *bool                  `json:"visible" yaml:"visible"` // nil = visible
	Metadata     map[string]interface{} `json:"metadata" yaml:"metadata"`
}

type fileLink struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Type   string  `json:"type" yaml:"type"`
	Value  float64 `json:"value" yaml:"value"`
}

// FormatForPath picks the dataset format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.WithHint(
			errors.NewInvalidDatasetError("unsupported dataset extension %q", filepath.Ext(path)),
			"use .json, .yaml or .yml, or dataset.driver = \"sqlite3\" for memory databases",
		)
	}
}

// LoadFile reads a JSON or YAML dataset from disk
func LoadFile(path string) (*Graph, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", path)
	}

	g, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset %s", path)
	}
	g.Meta.Source = path
	return g, nil
}

// Decode parses a dataset from r and returns a finalized graph
func Decode(r io.Reader, format Format) (*Graph, error) {
	var file datasetFile

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&file); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidDataset, err.Error())
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrInvalidDataset, err.Error())
		}
	default:
		return nil, errors.NewInvalidDatasetError("unknown dataset format %q", format)
	}

	if err := CheckSchemaVersion(file.SchemaVersion); err != nil {
		return nil, err
	}

	return file.toGraph()
}

// CheckSchemaVersion rejects datasets written for an incompatible schema.
// An empty version is treated as DefaultSchemaVersion.
func CheckSchemaVersion(version string) error {
	if version == "" {
		version = DefaultSchemaVersion
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.NewInvalidDatasetError("malformed schema_version %q: %v", version, err)
	}

	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return errors.AssertionFailedf("bad schema constraint %q: %v", SchemaConstraint, err)
	}

	if !constraint.Check(v) {
		return errors.WithHintf(
			errors.NewInvalidDatasetError("schema_version %s not supported", v),
			"this build reads schema versions %s", SchemaConstraint,
		)
	}
	return nil
}

func (f *datasetFile) toGraph() (*Graph, error) {
	g := &Graph{
		Nodes: make([]Node, 0, len(f.Nodes)),
		Links: make([]Link, 0, len(f.Links)),
		Meta: Meta{
			DatasetID:     uuid.NewString(),
			SchemaVersion: f.SchemaVersion,
			GeneratedAt:   time.Now(),
		},
	}
	if g.Meta.SchemaVersion == "" {
		g.Meta.SchemaVersion = DefaultSchemaVersion
	}

	indexByID := make(map[string]int, len(f.Nodes))
	for i, fn := range f.Nodes {
		id := fn.ID
		if id == "" {
			return nil, errors.NewInvalidDatasetError("node %d has no id", i)
		}
		if _, dup := indexByID[id]; dup {
			return nil, errors.NewInvalidDatasetError("duplicate node id %q", id)
		}
		indexByID[id] = i

		visible := true
		if fn.Visible != nil {
			visible = *fn.Visible
		}
		label := fn.Label
		if label == "" {
			label = id
		}

		g.Nodes = append(g.Nodes, Node{
			Index:        i,
			ID:           id,
			Type:         fn.Type,
			Label:        label,
			Timestamp:    fn.Timestamp,
			MemoryType:   fn.MemoryType,
			Domain:       fn.Domain,
			Category:     fn.Category,
			AgentID:      fn.AgentID,
			Quality:      fn.Quality,
			Confidence:   fn.Confidence,
			HasEmbedding: fn.HasEmbedding,
			Visible:      visible,
			Metadata:     fn.Metadata,
		})
	}

	for i, fl := range f.Links {
		source, ok := indexByID[fl.Source]
		if !ok {
			return nil, errors.NewInvalidDatasetError("link %d: unknown source %q", i, fl.Source)
		}
		target, ok := indexByID[fl.Target]
		if !ok {
			return nil, errors.NewInvalidDatasetError("link %d: unknown target %q", i, fl.Target)
		}
		g.Links = append(g.Links, Link{
			Source: source,
			Target: target,
			Type:   fl.Type,
			Weight: fl.Value,
		})
	}

	if err := Finalize(g); err != nil {
		return nil, err
	}
	return g, nil
}
