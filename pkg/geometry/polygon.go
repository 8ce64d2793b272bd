package geometry

import (
	"math"
	"sort"
)

// ConvexHull computes the convex hull of a set of points using Graham scan.
// The hull is returned as a closed ring; collinear boundary points are
// dropped. Fewer than 3 input points are returned unchanged.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		return points
	}

	// Make a copy to avoid modifying the input
	pts := make([]Point2D, len(points))
	copy(pts, points)

	// Pivot: lowest y, leftmost on ties
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	sorted := pts[1:]
	sort.Slice(sorted, func(i, j int) bool {
		cross := crossProduct(pivot, sorted[i], sorted[j])
		if cross == 0 {
			return distSq(pivot, sorted[i]) < distSq(pivot, sorted[j])
		}
		return cross > 0
	})

	hull := []Point2D{pivot}
	for _, p := range sorted {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

func distSq(a, b Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// PolygonArea computes the enclosed area of a simple polygon using the
// shoelace formula. The result is always non-negative regardless of winding.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}

	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter computes the total edge length of a closed polygon.
func Perimeter(polygon []Point2D) float64 {
	if len(polygon) < 2 {
		return 0
	}

	var total float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		total += polygon[i].Distance(polygon[(i+1)%n])
	}
	return total
}

// IsConvex returns true if the polygon vertices form a convex polygon.
// The polygon is assumed to be simple (non-self-intersecting).
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)

		if cross != 0 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}

			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}

	return true
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// Simplify reduces the number of vertices of an open polyline using the
// Douglas-Peucker algorithm. The first and last points are always kept.
func Simplify(path []Point2D, epsilon float64) []Point2D {
	if len(path) <= 2 {
		return path
	}

	// Find point with maximum distance from line between first and last points
	dmax := 0.0
	index := 0
	end := len(path) - 1

	for i := 1; i < end; i++ {
		d := PerpendicularDistance(path[i], path[0], path[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	// If max distance is greater than epsilon, recursively simplify
	if dmax > epsilon {
		left := Simplify(path[:index+1], epsilon)
		right := Simplify(path[index:], epsilon)

		// Build result (avoid duplicating middle point)
		result := make([]Point2D, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	// All points between first and last are within epsilon, return just endpoints
	return []Point2D{path[0], path[end]}
}

// SimplifyClosed simplifies a closed ring of points. The ring is split at its
// two mutually most distant anchor vertices, each half is simplified as an
// open polyline, and the halves are rejoined. The returned slice is again a
// closed ring (last point connects back to the first implicitly).
func SimplifyClosed(ring []Point2D, epsilon float64) []Point2D {
	if len(ring) <= 3 {
		return ring
	}

	// Anchor 1: first point. Anchor 2: vertex farthest from it. Both survive
	// simplification, so the split cannot erase the ring's extremes.
	far := 0
	dmax := 0.0
	for i := 1; i < len(ring); i++ {
		d := ring[0].Distance(ring[i])
		if d > dmax {
			dmax = d
			far = i
		}
	}
	if far == 0 {
		// All points coincide
		return ring[:1]
	}

	firstHalf := Simplify(ring[:far+1], epsilon)

	secondPart := make([]Point2D, 0, len(ring)-far+1)
	secondPart = append(secondPart, ring[far:]...)
	secondPart = append(secondPart, ring[0])
	secondHalf := Simplify(secondPart, epsilon)

	// Join halves, dropping the duplicated anchors
	result := make([]Point2D, 0, len(firstHalf)+len(secondHalf)-2)
	result = append(result, firstHalf...)
	result = append(result, secondHalf[1:len(secondHalf)-1]...)
	return result
}

// PerpendicularDistance calculates the perpendicular distance from point p to
// the infinite line through a and b.
func PerpendicularDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		// a and b are the same point
		return p.Distance(a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
