package contour

import (
	"testing"

	"page-scanner/internal/edge"
	"page-scanner/pkg/geometry"
)

func newMap(width, height int) *edge.Map {
	return &edge.Map{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func set(m *edge.Map, pts ...geometry.PointInt) {
	for _, p := range pts {
		m.Pix[p.Y*m.Width+p.X] = 255
	}
}

// setRect marks the 1-pixel outline of the rectangle [x0,x1]x[y0,y1].
func setRect(m *edge.Map, x0, y0, x1, y1 int) {
	for x := x0; x <= x1; x++ {
		set(m, geometry.PointInt{X: x, Y: y0}, geometry.PointInt{X: x, Y: y1})
	}
	for y := y0; y <= y1; y++ {
		set(m, geometry.PointInt{X: x0, Y: y}, geometry.PointInt{X: x1, Y: y})
	}
}

func TestFindExternal_FilledBlock(t *testing.T) {
	m := newMap(6, 6)
	set(m,
		geometry.PointInt{X: 2, Y: 2}, geometry.PointInt{X: 3, Y: 2},
		geometry.PointInt{X: 2, Y: 3}, geometry.PointInt{X: 3, Y: 3})

	got := FindExternal(m)
	if len(got) != 1 {
		t.Fatalf("got %d contours, want 1", len(got))
	}

	want := Contour{{X: 2, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: 3}, {X: 2, Y: 3}}
	if len(got[0]) != len(want) {
		t.Fatalf("contour %v, want %v", got[0], want)
	}
	for i := range want {
		if got[0][i] != want[i] {
			t.Errorf("point %d: got %v, want %v", i, got[0][i], want[i])
		}
	}
}

func TestFindExternal_RingTracesOuterBoundaryOnly(t *testing.T) {
	// A hollow rectangle outline is one connected region with an outer and
	// an inner boundary; only the outer one must be reported.
	m := newMap(20, 16)
	setRect(m, 2, 2, 15, 12)

	got := FindExternal(m)
	if len(got) != 1 {
		t.Fatalf("got %d contours, want 1", len(got))
	}

	c := got[0]
	if len(c) < 3 {
		t.Fatalf("contour has %d points", len(c))
	}
	for _, p := range c {
		onRing := p.X == 2 || p.X == 15 || p.Y == 2 || p.Y == 12
		if !onRing || p.X < 2 || p.X > 15 || p.Y < 2 || p.Y > 12 {
			t.Errorf("point %v is not on the ring outline", p)
		}
	}

	bb := geometry.BoundingBox(c.Points())
	if bb.X != 2 || bb.Y != 2 || bb.Width != 13 || bb.Height != 10 {
		t.Errorf("outer boundary extent %+v, want the full ring", bb)
	}
}

func TestFindExternal_TinyRegionsDropped(t *testing.T) {
	// A lone pixel and a two-pixel domino both trace to fewer than 3
	// boundary points and must be dropped.
	m := newMap(10, 10)
	set(m, geometry.PointInt{X: 1, Y: 1})
	set(m, geometry.PointInt{X: 6, Y: 6}, geometry.PointInt{X: 7, Y: 6})

	if got := FindExternal(m); len(got) != 0 {
		t.Errorf("got %d contours, want 0: %v", len(got), got)
	}
}

func TestFindExternal_ThinLineTerminates(t *testing.T) {
	// A one-pixel-wide line never reproduces the initial backtrack, so the
	// walk has to terminate on the second-visit check instead of the step cap.
	m := newMap(12, 5)
	for x := 2; x <= 8; x++ {
		set(m, geometry.PointInt{X: x, Y: 2})
	}

	got := FindExternal(m)
	if len(got) != 1 {
		t.Fatalf("got %d contours, want 1", len(got))
	}
	// Out-and-back along the line: roughly twice the length, never the cap.
	if n := len(got[0]); n < 3 || n > 20 {
		t.Errorf("thin line contour has %d points", n)
	}
	for _, p := range got[0] {
		if p.Y != 2 || p.X < 2 || p.X > 8 {
			t.Errorf("point %v strayed off the line", p)
		}
	}
}

func TestFindExternal_ScanEncounterOrder(t *testing.T) {
	m := newMap(20, 20)
	setRect(m, 12, 12, 17, 17)
	setRect(m, 1, 1, 6, 6)

	got := FindExternal(m)
	if len(got) != 2 {
		t.Fatalf("got %d contours, want 2", len(got))
	}
	if got[0][0] != (geometry.PointInt{X: 1, Y: 1}) {
		t.Errorf("first contour starts at %v, want the topmost-leftmost region", got[0][0])
	}
	if got[1][0] != (geometry.PointInt{X: 12, Y: 12}) {
		t.Errorf("second contour starts at %v", got[1][0])
	}
}

func TestContourPoints(t *testing.T) {
	c := Contour{{X: 3, Y: 4}, {X: 5, Y: 6}}
	pts := c.Points()
	if len(pts) != 2 || pts[0] != (geometry.Point2D{X: 3, Y: 4}) || pts[1] != (geometry.Point2D{X: 5, Y: 6}) {
		t.Errorf("Points() = %v", pts)
	}
}
