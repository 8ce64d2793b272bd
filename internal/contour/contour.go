// Package contour traces the outer boundaries of connected edge-pixel
// regions in a binary edge map.
package contour

import (
	"page-scanner/internal/edge"
	"page-scanner/pkg/geometry"
)

// Contour is an ordered closed boundary of connected edge pixels. The last
// point connects back to the first implicitly. Contours are never mutated
// after extraction.
type Contour []geometry.PointInt

// Points converts the contour to floating-point coordinates.
func (c Contour) Points() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(c))
	for i, p := range c {
		pts[i] = p.ToFloat()
	}
	return pts
}

// Moore neighborhood in clockwise order for y-down image coordinates:
// E, SE, S, SW, W, NW, N, NE.
var nbrDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
var nbrDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}

// FindExternal scans the edge map top-to-bottom, left-to-right and traces the
// outer boundary of each 8-connected edge region the scan first encounters.
// Inner (hole) boundaries are never traced. Contours are returned in
// scan-encounter order; boundaries with fewer than 3 points are dropped.
func FindExternal(m *edge.Map) []Contour {
	visited := make([]bool, m.Width*m.Height)
	var contours []Contour

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.EdgeAt(x, y) || visited[y*m.Width+x] {
				continue
			}

			c := traceBoundary(m, x, y)
			floodMark(m, visited, x, y)

			if len(c) >= 3 {
				contours = append(contours, c)
			}
		}
	}
	return contours
}

// traceBoundary walks the outer boundary clockwise using Moore neighbor
// tracing. The start pixel is the topmost-leftmost pixel of its region, so
// its west neighbor is guaranteed background. The walk stops on re-entering
// the start pixel from the original backtrack position, or on revisiting the
// start pixel with the same outgoing move as the first step. The second check
// is what terminates one-pixel-wide lines, whose walk never reproduces the
// initial backtrack.
func traceBoundary(m *edge.Map, sx, sy int) Contour {
	start := geometry.PointInt{X: sx, Y: sy}
	startBack := geometry.PointInt{X: sx - 1, Y: sy}

	cur := start
	back := startBack
	contour := Contour{start}

	// A boundary pixel is visited at most four times (once per entry
	// direction), so 4*area is a safe walk bound.
	maxSteps := 4 * m.Width * m.Height

	for step := 0; step < maxSteps; step++ {
		d := neighborIndex(cur, back)
		prev := back

		found := false
		var next geometry.PointInt
		for i := 1; i <= 8; i++ {
			k := (d + i) % 8
			q := geometry.PointInt{X: cur.X + nbrDX[k], Y: cur.Y + nbrDY[k]}
			if m.EdgeAt(q.X, q.Y) {
				next = q
				found = true
				break
			}
			prev = q
		}

		if !found {
			// Isolated pixel
			return contour
		}

		if cur == start && len(contour) > 1 && next == contour[1] {
			return trimClosing(contour)
		}

		back = prev
		cur = next

		if cur == start && back == startBack {
			return trimClosing(contour)
		}
		contour = append(contour, cur)
	}
	return trimClosing(contour)
}

// trimClosing drops a trailing repeat of the start point left by walks that
// come back through the start pixel before terminating.
func trimClosing(c Contour) Contour {
	if len(c) > 1 && c[len(c)-1] == c[0] {
		return c[:len(c)-1]
	}
	return c
}

// neighborIndex returns the clockwise neighborhood index of q relative to p.
func neighborIndex(p, q geometry.PointInt) int {
	dx, dy := q.X-p.X, q.Y-p.Y
	for i := 0; i < 8; i++ {
		if nbrDX[i] == dx && nbrDY[i] == dy {
			return i
		}
	}
	return 4 // unreachable for adjacent pixels; fall back to W
}

// floodMark marks every pixel of the 8-connected region containing (sx, sy)
// as visited, so nested boundaries inside the region are never re-traced.
// Iterative stack walk to avoid recursion depth on large regions.
func floodMark(m *edge.Map, visited []bool, sx, sy int) {
	stack := []geometry.PointInt{{X: sx, Y: sy}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !m.EdgeAt(p.X, p.Y) || visited[p.Y*m.Width+p.X] {
			continue
		}
		visited[p.Y*m.Width+p.X] = true

		for i := 0; i < 8; i++ {
			stack = append(stack, geometry.PointInt{X: p.X + nbrDX[i], Y: p.Y + nbrDY[i]})
		}
	}
}
