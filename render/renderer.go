// Package render defines what the view machine hands to a rendering
// layer. Calls are synchronous and fire-and-forget.
package render

import (
	"github.com/teranos/vista/geodesic"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/space"
)

// Layer names a mode-specific visual collaborator the machine toggles
type Layer string

const (
	LayerNodes        Layer = "nodes"
	LayerLinks        Layer = "links"
	LayerDepthPlanes  Layer = "depth_planes"  // 2.5D glass planes
	LayerSphereShell  Layer = "sphere_shell"  // 3D reference sphere
	LayerDiskBoundary Layer = "disk_boundary" // Poincaré boundary circle
	LayerGeodesics    Layer = "geodesics"
	LayerExternal     Layer = "external" // owned by external projectors
)

// AllLayers lists every layer the machine manages
var AllLayers = []Layer{
	LayerNodes, LayerLinks, LayerDepthPlanes, LayerSphereShell,
	LayerDiskBoundary, LayerGeodesics, LayerExternal,
}

// Renderer receives display-space output
type Renderer interface {
	SetViewMode(mode projection.Mode)
	UpdateNodePositions(frame space.DisplayFrame)
	UpdateNodeZPositions(z []float64)
	SetGeodesicEdges(edges []projection.GeodesicEdge, disk []geodesic.Point, diskRadius float64)
	ApplyDepthEffects(effects []projection.DepthEffect)
	SetVisible(layer Layer, visible bool)
}

// Multi fans every call out to several renderers
type Multi []Renderer

func (m Multi) SetViewMode(mode projection.Mode) {
	for _, r := range m {
		r.SetViewMode(mode)
	}
}

func (m Multi) UpdateNodePositions(frame space.DisplayFrame) {
	for _, r := range m {
		r.UpdateNodePositions(frame)
	}
}

func (m Multi) UpdateNodeZPositions(z []float64) {
	for _, r := range m {
		r.UpdateNodeZPositions(z)
	}
}

func (m Multi) SetGeodesicEdges(edges []projection.GeodesicEdge, disk []geodesic.Point, diskRadius float64) {
	for _, r := range m {
		r.SetGeodesicEdges(edges, disk, diskRadius)
	}
}

func (m Multi) ApplyDepthEffects(effects []projection.DepthEffect) {
	for _, r := range m {
		r.ApplyDepthEffects(effects)
	}
}

func (m Multi) SetVisible(layer Layer, visible bool) {
	for _, r := range m {
		r.SetVisible(layer, visible)
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) SetViewMode(projection.Mode)                                           {}
func (Nop) UpdateNodePositions(space.DisplayFrame)                                {}
func (Nop) UpdateNodeZPositions([]float64)                                        {}
func (Nop) SetGeodesicEdges([]projection.GeodesicEdge, []geodesic.Point, float64) {}
func (Nop) ApplyDepthEffects([]projection.DepthEffect)                            {}
func (Nop) SetVisible(Layer, bool)                                                {}

var (
	_ Renderer = Multi(nil)
	_ Renderer = Nop{}
)
