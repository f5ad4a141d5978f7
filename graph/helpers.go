package graph

import (
	"sort"
	"strings"
	"time"

	"github.com/teranos/vista/errors"
)

// Finalize validates a freshly loaded graph and fills the derived fields:
// Index (position in Nodes), Connectivity, Stats and type summaries.
// Links pointing outside the node range are an invalid dataset.
func Finalize(g *Graph) error {
	if g == nil {
		return errors.NewInvalidDatasetError("nil graph")
	}

	for i := range g.Nodes {
		g.Nodes[i].Index = i
	}

	n := len(g.Nodes)
	for i, link := range g.Links {
		if link.Source < 0 || link.Source >= n || link.Target < 0 || link.Target >= n {
			return errors.NewInvalidDatasetError("link %d references node outside [0,%d): %d -> %d",
				i, n, link.Source, link.Target)
		}
		if g.Links[i].Weight == 0 {
			g.Links[i].Weight = defaultLinkWeight
		}
	}

	ComputeConnectivity(g)

	g.Meta.Stats = Stats{TotalNodes: n, TotalEdges: len(g.Links)}
	for _, node := range g.Nodes {
		if node.Timestamp != nil {
			g.Meta.Stats.WithTimestamp++
		}
		if node.Visible {
			g.Meta.Stats.Visible++
		}
	}
	g.Meta.NodeTypes = collectNodeTypeInfo(g.Nodes)
	g.Meta.RelationshipTypes = collectRelationshipTypeInfo(g.Links)
	if g.Meta.GeneratedAt.IsZero() {
		g.Meta.GeneratedAt = time.Now()
	}
	return nil
}

// ComputeConnectivity sets each node's Connectivity to its degree.
// Self-loops count once.
func ComputeConnectivity(g *Graph) {
	for i := range g.Nodes {
		g.Nodes[i].Connectivity = 0
	}
	for _, link := range g.Links {
		g.Nodes[link.Source].Connectivity++
		if link.Target != link.Source {
			g.Nodes[link.Target].Connectivity++
		}
	}
}

// EnabledMask returns the filter-enabled flag of every node, by index
func EnabledMask(g *Graph) []bool {
	mask := make([]bool, len(g.Nodes))
	for i, node := range g.Nodes {
		mask[i] = node.Visible
	}
	return mask
}

// SetTypeVisibility enables or disables every node of a type.
// Links touching a disabled node are hidden. Returns the number of nodes changed.
func SetTypeVisibility(g *Graph, nodeType string, visible bool) int {
	changed := 0
	for i := range g.Nodes {
		if g.Nodes[i].Type == nodeType && g.Nodes[i].Visible != visible {
			g.Nodes[i].Visible = visible
			changed++
		}
	}
	for i := range g.Links {
		link := &g.Links[i]
		link.Hidden = !g.Nodes[link.Source].Visible || !g.Nodes[link.Target].Visible
	}
	return changed
}

// TypeLabel turns a node type into a display label ("neural_pattern" -> "Neural Pattern")
func TypeLabel(nodeType string) string {
	if nodeType == "" {
		return defaultUntypedLabel
	}
	words := strings.Split(nodeType, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// collectNodeTypeInfo counts nodes per type, sorted by type for deterministic output
func collectNodeTypeInfo(nodes []Node) []NodeTypeInfo {
	counts := make(map[string]int)
	for _, node := range nodes {
		counts[node.Type]++
	}

	infos := make([]NodeTypeInfo, 0, len(counts))
	for nodeType, count := range counts {
		infos = append(infos, NodeTypeInfo{
			Type:  nodeType,
			Label: TypeLabel(nodeType),
			Count: count,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// collectRelationshipTypeInfo counts links per edge class
func collectRelationshipTypeInfo(links []Link) []RelationshipTypeInfo {
	counts := make(map[string]int)
	for _, link := range links {
		counts[link.Type]++
	}

	infos := make([]RelationshipTypeInfo, 0, len(counts))
	for linkType, count := range counts {
		infos = append(infos, RelationshipTypeInfo{Type: linkType, Count: count})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}
