// Package geodesic samples hyperbolic shortest paths in the Poincaré disk.
//
// A geodesic between two disk points is either a diameter segment (when
// the points are collinear with the origin) or an arc of the circle
// orthogonal to the unit circle through both points.
package geodesic

import "math"

const (
	// MaxNorm keeps points strictly inside the unit disk
	MaxNorm = 0.99

	// CollinearEpsilon is the cross-product magnitude below which two
	// points are treated as collinear with the origin
	CollinearEpsilon = 1e-8
)

// Point is a 2D disk coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3 is a disk coordinate lifted to a constant depth
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pair is one edge to draw, by endpoint
type Pair struct {
	From Point
	To   Point
}

// Clamp rescales p onto radius MaxNorm when it lies further out.
// Non-finite points collapse to the origin.
func Clamp(p Point) Point {
	if !finite(p.X) || !finite(p.Y) {
		return Point{}
	}
	norm := math.Hypot(p.X, p.Y)
	if norm > MaxNorm {
		scale := MaxNorm / norm
		return Point{X: p.X * scale, Y: p.Y * scale}
	}
	return p
}

// ComputeArc returns segments+1 points along the geodesic from p1 to p2.
// segments below 1 is treated as 1.
func ComputeArc(p1, p2 Point, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	p1, p2 = Clamp(p1), Clamp(p2)

	c, r, ok := orthogonalCircle(p1, p2)
	if !ok {
		return straight(p1, p2, segments)
	}

	start, sweep := shorterSweep(c, p1, p2)
	points := make([]Point, segments+1)
	for i := 0; i <= segments; i++ {
		a := start + sweep*float64(i)/float64(segments)
		points[i] = Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	// Pin the endpoints exactly
	points[0], points[segments] = p1, p2
	return points
}

// Midpoint returns the point halfway along the geodesic from p1 to p2
func Midpoint(p1, p2 Point) Point {
	p1, p2 = Clamp(p1), Clamp(p2)

	c, r, ok := orthogonalCircle(p1, p2)
	if !ok {
		return Point{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2}
	}
	start, sweep := shorterSweep(c, p1, p2)
	a := start + sweep/2
	return Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
}

// ComputeArc3D is ComputeArc with every sample placed at depth z
func ComputeArc3D(p1, p2 Point, segments int, z float64) []Point3 {
	flat := ComputeArc(p1, p2, segments)
	out := make([]Point3, len(flat))
	for i, p := range flat {
		out[i] = Point3{X: p.X, Y: p.Y, Z: z}
	}
	return out
}

// ComputeArcs computes each pair independently
func ComputeArcs(pairs []Pair, segments int) [][]Point {
	arcs := make([][]Point, len(pairs))
	for i, pair := range pairs {
		arcs[i] = ComputeArc(pair.From, pair.To, segments)
	}
	return arcs
}

// orthogonalCircle solves for the circle through p1 and p2 orthogonal to
// the unit circle. Orthogonality gives |c|^2 - 1 = r^2, so for each point
// c·p = (|p|^2 + 1) / 2, a 2x2 system solved by Cramer's rule. ok is false
// for collinear (or near-singular) input.
func orthogonalCircle(p1, p2 Point) (c Point, r float64, ok bool) {
	det := p1.X*p2.Y - p2.X*p1.Y
	if math.Abs(det) < CollinearEpsilon {
		return Point{}, 0, false
	}

	b1 := (p1.X*p1.X + p1.Y*p1.Y + 1) / 2
	b2 := (p2.X*p2.X + p2.Y*p2.Y + 1) / 2

	c = Point{
		X: (b1*p2.Y - b2*p1.Y) / det,
		Y: (p1.X*b2 - p2.X*b1) / det,
	}
	r = math.Sqrt(math.Max(0, c.X*c.X+c.Y*c.Y-1))
	if !finite(r) || !finite(c.X) || !finite(c.Y) {
		return Point{}, 0, false
	}
	return c, r, true
}

// shorterSweep returns the start angle of p1 on the circle around c and
// the signed sweep to p2, normalized into (-π, π]
func shorterSweep(c, p1, p2 Point) (start, sweep float64) {
	start = math.Atan2(p1.Y-c.Y, p1.X-c.X)
	end := math.Atan2(p2.Y-c.Y, p2.X-c.X)
	return start, normalizeAngle(end - start)
}

func normalizeAngle(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func straight(p1, p2 Point, segments int) []Point {
	points := make([]Point, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		points[i] = Point{X: p1.X + (p2.X-p1.X)*t, Y: p1.Y + (p2.Y-p1.Y)*t}
	}
	return points
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
