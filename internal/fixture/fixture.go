// Package fixture generates labeled synthetic page images with known
// quadrilateral ground truth for exercising the detection pipeline.
package fixture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"page-scanner/internal/page"
	"page-scanner/pkg/geometry"
)

// Canvas size and outline width shared by all scenarios.
const (
	CanvasWidth      = 500
	CanvasHeight     = 700
	OutlineThickness = 2
	textLines        = 5
)

// Scenario describes one synthetic test case: a page outline drawn at known
// corner coordinates. Corners are listed TL, TR, BR, BL.
type Scenario struct {
	Name        string
	Description string
	Corners     [4]geometry.PointInt
}

// Scenarios returns the built-in test cases, from the ideal rectangle to a
// strongly perspective-distorted page.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name:        "perfect_rectangle",
			Description: "axis-aligned page, ideal case",
			Corners:     [4]geometry.PointInt{{X: 50, Y: 50}, {X: 450, Y: 50}, {X: 450, Y: 650}, {X: 50, Y: 650}},
		},
		{
			Name:        "tilted_page",
			Description: "slightly rotated page, common case",
			Corners:     [4]geometry.PointInt{{X: 100, Y: 80}, {X: 400, Y: 50}, {X: 420, Y: 620}, {X: 80, Y: 650}},
		},
		{
			Name:        "perspective_distortion",
			Description: "perspective-distorted page, challenging case",
			Corners:     [4]geometry.PointInt{{X: 150, Y: 100}, {X: 350, Y: 80}, {X: 380, Y: 600}, {X: 120, Y: 620}},
		},
	}
}

// Fixture pairs a generated image file with its ground-truth boundary.
type Fixture struct {
	Name        string
	Description string
	Path        string
	Truth       page.Quad
}

// Generate renders every scenario into dir (created if absent) and returns
// the fixtures with their ground truth. Fixtures are written as JPEG to match
// the real capture path the pipeline normally consumes.
func Generate(dir string) ([]Fixture, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fixture dir: %w", err)
	}

	scenarios := Scenarios()
	fixtures := make([]Fixture, 0, len(scenarios))

	for i, sc := range scenarios {
		img := Render(sc)

		name := fmt.Sprintf("test_case_%d_%s.jpg", i+1, sc.Name)
		path := filepath.Join(dir, name)
		if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
			return nil, fmt.Errorf("save fixture %s: %w", name, err)
		}

		fixtures = append(fixtures, Fixture{
			Name:        sc.Name,
			Description: sc.Description,
			Path:        path,
			Truth:       truthQuad(sc),
		})
	}
	return fixtures, nil
}

// Render draws a scenario onto a fresh white canvas: the page outline in
// black at OutlineThickness, plus five evenly spaced text-like lines
// emulating printed content.
func Render(sc Scenario) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	pts := make([]geometry.Point2D, 4)
	for i, c := range sc.Corners {
		pts[i] = c.ToFloat()
	}
	interior := geometry.Centroid(pts)

	for i := 0; i < 4; i++ {
		a := sc.Corners[i]
		b := sc.Corners[(i+1)%4]
		drawThickLine(img, a, b, interior)
	}

	for i := 0; i < textLines; i++ {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(100, 150+i*100),
		}
		d.DrawString(fmt.Sprintf("Sample page text line %d", i+1))
	}
	return img
}

// truthQuad converts scenario corners to the ordered quadrilateral the
// selector is expected to recover.
func truthQuad(sc Scenario) page.Quad {
	pts := make([]geometry.Point2D, 4)
	for i, c := range sc.Corners {
		pts[i] = c.ToFloat()
	}
	q, _ := page.OrderCorners(pts)
	return q
}

// drawThickLine rasterizes segment a-b by stepping at sub-pixel intervals and
// stamping an OutlineThickness-square block shifted toward the page interior.
// The ink's outer boundary then follows the scenario corners exactly, so a
// detector tracking the outer edge of the outline is measured against the
// declared ground truth.
func drawThickLine(img *image.RGBA, a, b geometry.PointInt, interior geometry.Point2D) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)))) * 2
	if steps == 0 {
		steps = 1
	}

	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(float64(a.X) + t*dx))
		y := int(math.Round(float64(a.Y) + t*dy))
		if float64(x) > interior.X {
			x -= OutlineThickness - 1
		}
		if float64(y) > interior.Y {
			y -= OutlineThickness - 1
		}
		for oy := 0; oy < OutlineThickness; oy++ {
			for ox := 0; ox < OutlineThickness; ox++ {
				img.Set(x+ox, y+oy, color.Black)
			}
		}
	}
}
