// Package page selects the best page-boundary quadrilateral among extracted
// contours and rectifies the source image to a fronto-parallel view.
package page

import (
	"errors"
	"math"

	"page-scanner/internal/contour"
	"page-scanner/pkg/geometry"
)

// ErrNoCandidate reports that no contour survived the shape and area filters.
var ErrNoCandidate = errors.New("no page boundary candidate found")

// ErrDegenerateHomography reports a singular or near-singular transform.
var ErrDegenerateHomography = errors.New("degenerate homography")

// Quad is a detected page boundary: four corners ordered top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]geometry.Point2D

// Points returns the corners as a slice.
func (q Quad) Points() []geometry.Point2D {
	return []geometry.Point2D{q[0], q[1], q[2], q[3]}
}

// Area returns the enclosed area.
func (q Quad) Area() float64 {
	return geometry.PolygonArea(q.Points())
}

// OrderCorners arranges four points into TL, TR, BR, BL order:
// TL minimizes x+y, BR maximizes x+y, TR maximizes x-y, BL minimizes x-y.
// Returns false when the points do not resolve to four distinct corners.
func OrderCorners(pts []geometry.Point2D) (Quad, bool) {
	if len(pts) != 4 {
		return Quad{}, false
	}

	tl, tr, br, bl := 0, 0, 0, 0
	for i := 1; i < 4; i++ {
		if pts[i].X+pts[i].Y < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if pts[i].X+pts[i].Y > pts[br].X+pts[br].Y {
			br = i
		}
		if pts[i].X-pts[i].Y > pts[tr].X-pts[tr].Y {
			tr = i
		}
		if pts[i].X-pts[i].Y < pts[bl].X-pts[bl].Y {
			bl = i
		}
	}

	if tl == br || tl == tr || tl == bl || tr == br || tr == bl || br == bl {
		return Quad{}, false
	}
	return Quad{pts[tl], pts[tr], pts[br], pts[bl]}, true
}

// SelectorConfig holds the candidate filter thresholds. Zero values are
// replaced by DefaultSelectorConfig values in SelectQuad.
type SelectorConfig struct {
	// ApproxEpsilonFrac scales the polygon approximation tolerance as a
	// fraction of the contour perimeter.
	ApproxEpsilonFrac float64 `yaml:"approxEpsilonFrac"`

	// CollinearToleranceDeg merges vertices whose turn angle is below this
	// many degrees.
	CollinearToleranceDeg float64 `yaml:"collinearToleranceDeg"`

	// MinAreaFraction rejects candidates enclosing less than this fraction
	// of the full image area.
	MinAreaFraction float64 `yaml:"minAreaFraction"`
}

// DefaultSelectorConfig returns the filter thresholds used by the pipeline.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		ApproxEpsilonFrac:     0.02,
		CollinearToleranceDeg: 5,
		MinAreaFraction:       0.10,
	}
}

// SelectQuad reduces each contour to a polygon, keeps those that form a
// convex quadrilateral enclosing at least MinAreaFraction of the image area,
// and returns the largest-area survivor with corners in TL,TR,BR,BL order.
// Ties go to the earliest-encountered contour. Contour ordering otherwise
// carries no meaning.
//
// Each contour is first replaced by its convex hull: a boundary broken by
// noise traces as a self-overlapping arc, and the hull recovers the enclosing
// polygon the arc outlines before approximation runs.
func SelectQuad(contours []contour.Contour, imgWidth, imgHeight int, cfg SelectorConfig) (Quad, error) {
	if cfg.ApproxEpsilonFrac == 0 {
		cfg.ApproxEpsilonFrac = DefaultSelectorConfig().ApproxEpsilonFrac
	}
	if cfg.CollinearToleranceDeg == 0 {
		cfg.CollinearToleranceDeg = DefaultSelectorConfig().CollinearToleranceDeg
	}
	if cfg.MinAreaFraction == 0 {
		cfg.MinAreaFraction = DefaultSelectorConfig().MinAreaFraction
	}

	imgArea := float64(imgWidth) * float64(imgHeight)
	tolRad := cfg.CollinearToleranceDeg * math.Pi / 180

	var best Quad
	bestArea := -1.0

	for _, c := range contours {
		hull := geometry.ConvexHull(c.Points())
		if len(hull) < 3 {
			continue
		}
		eps := cfg.ApproxEpsilonFrac * geometry.Perimeter(hull)

		approx := geometry.SimplifyClosed(hull, eps)
		approx = mergeCollinear(approx, tolRad)

		if len(approx) != 4 || !geometry.IsConvex(approx) {
			continue
		}

		area := geometry.PolygonArea(approx)
		if area < cfg.MinAreaFraction*imgArea {
			continue
		}

		q, ok := OrderCorners(approx)
		if !ok {
			continue
		}
		if area > bestArea {
			best = q
			bestArea = area
		}
	}

	if bestArea < 0 {
		return Quad{}, ErrNoCandidate
	}
	return best, nil
}

// mergeCollinear removes vertices where the boundary turns by less than the
// tolerance, collapsing near-collinear runs left over from approximation.
func mergeCollinear(polygon []geometry.Point2D, tolRad float64) []geometry.Point2D {
	for len(polygon) > 3 {
		removed := false
		for i := 0; i < len(polygon); i++ {
			prev := polygon[(i+len(polygon)-1)%len(polygon)]
			next := polygon[(i+1)%len(polygon)]
			if turnAngle(prev, polygon[i], next) < tolRad {
				polygon = append(polygon[:i], polygon[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}
	return polygon
}

// turnAngle returns the absolute direction change at vertex v between the
// incoming edge a->v and the outgoing edge v->b.
func turnAngle(a, v, b geometry.Point2D) float64 {
	in := math.Atan2(v.Y-a.Y, v.X-a.X)
	out := math.Atan2(b.Y-v.Y, b.X-v.X)
	diff := math.Abs(out - in)
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	return diff
}
