// Package edge builds binary edge maps from raster images using
// gradient-magnitude detection with hysteresis thresholding.
package edge

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"page-scanner/internal/raster"
)

// Config holds the edge detection thresholds. Zero values are replaced by
// DefaultConfig values in Detect.
type Config struct {
	// SmoothKernelSize is the side length of the pre-smoothing box kernel.
	// Must be odd; 1 disables smoothing.
	SmoothKernelSize int `yaml:"smoothKernelSize"`

	// LowThreshold is the gradient magnitude above which a pixel is kept as
	// an edge when connected to an already-marked edge pixel.
	LowThreshold float64 `yaml:"lowThreshold"`

	// HighThreshold is the gradient magnitude above which a pixel is always
	// marked as an edge.
	HighThreshold float64 `yaml:"highThreshold"`

	// GapCloseRadius is the morphological closing radius applied to the
	// finished map. Suppression and compression noise leave pixel-scale
	// breaks along a boundary that would otherwise split it into many short
	// arcs. 0 disables closing.
	GapCloseRadius int `yaml:"gapCloseRadius"`
}

// DefaultConfig returns the thresholds used by the page detection pipeline:
// 5x5 smoothing, hysteresis bounds 50/150 on a 0-255 scale, closing radius 2.
func DefaultConfig() Config {
	return Config{
		SmoothKernelSize: 5,
		LowThreshold:     50,
		HighThreshold:    150,
		GapCloseRadius:   2,
	}
}

// Map is a binary edge image. Every value is either 0 (background) or
// 255 (edge), and the dimensions always equal those of the source image.
type Map struct {
	Width  int
	Height int
	Pix    []uint8
}

// EdgeAt reports whether (x, y) is an edge pixel. Out-of-range coordinates
// are background.
func (m *Map) EdgeAt(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Count returns the number of edge pixels.
func (m *Map) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// ToImage renders the map as a grayscale image, edges in white.
func (m *Map) ToImage() image.Image {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(out.Pix, m.Pix)
	return out
}

// Detect converts the input to luminance, smooths it, and marks pixels whose
// gradient magnitude exceeds the high threshold, plus pixels above the low
// threshold that are 8-connected to a marked pixel (hysteresis). The result
// has the same dimensions as the input. Deterministic for a given input.
func Detect(img *raster.Image, cfg Config) (*Map, error) {
	if img == nil || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("%w: zero-area raster", raster.ErrInvalidInput)
	}
	if cfg.SmoothKernelSize == 0 && cfg.LowThreshold == 0 && cfg.HighThreshold == 0 {
		cfg = DefaultConfig()
	}

	width, height := img.Width, img.Height
	plane := smoothedLuminance(img, cfg.SmoothKernelSize)

	// Sobel gradients
	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx, gy := sobelAt(plane, width, height, x, y)
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	suppressed := nonMaxSuppress(magnitude, direction, width, height)

	m := hysteresis(suppressed, width, height, cfg.LowThreshold, cfg.HighThreshold)
	if cfg.GapCloseRadius > 0 {
		m = m.Close(cfg.GapCloseRadius)
	}
	return m, nil
}

// Close bridges small breaks in the edge map by morphological closing,
// dilation followed by erosion with the given radius. Closing never removes
// original edge pixels, it only fills gaps the structuring element spans.
func (m *Map) Close(radius int) *Map {
	dilated := effect.Dilate(m.ToImage(), float64(radius))
	eroded := effect.Erode(dilated, float64(radius))

	out := &Map{Width: m.Width, Height: m.Height, Pix: make([]uint8, m.Width*m.Height)}
	for y := 0; y < m.Height; y++ {
		row := eroded.PixOffset(0, y)
		for x := 0; x < m.Width; x++ {
			if eroded.Pix[row+x*4] >= 128 {
				out.Pix[y*m.Width+x] = 255
			}
		}
	}
	return out
}

// smoothedLuminance produces a float luminance plane (0-255), box-smoothed
// with the given kernel size. Grayscale conversion and smoothing run through
// bild so the pre-pass matches its well-tested convolution behavior.
func smoothedLuminance(img *raster.Image, kernel int) []float64 {
	src := effect.Grayscale(img.ToImage())

	smoothed := src
	if kernel > 1 {
		radius := float64(kernel / 2)
		smoothed = blur.Box(src, radius)
	}

	width, height := img.Width, img.Height
	plane := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := smoothed.PixOffset(0, y)
		for x := 0; x < width; x++ {
			// Grayscale output has R == G == B
			plane[y*width+x] = float64(smoothed.Pix[row+x*4])
		}
	}
	return plane
}

func sobelAt(plane []float64, width, height, x, y int) (gx, gy float64) {
	sample := func(sx, sy int) float64 {
		if sx < 0 {
			sx = 0
		} else if sx >= width {
			sx = width - 1
		}
		if sy < 0 {
			sy = 0
		} else if sy >= height {
			sy = height - 1
		}
		return plane[sy*width+sx]
	}

	tl, t, tr := sample(x-1, y-1), sample(x, y-1), sample(x+1, y-1)
	l, r := sample(x-1, y), sample(x+1, y)
	bl, b, br := sample(x-1, y+1), sample(x, y+1), sample(x+1, y+1)

	gx = (tr + 2*r + br) - (tl + 2*l + bl)
	gy = (bl + 2*b + br) - (tl + 2*t + tr)
	return gx, gy
}

// nonMaxSuppress thins the gradient response to local maxima along the
// gradient direction, keeping edges about one pixel wide.
func nonMaxSuppress(magnitude, direction []float64, width, height int) []float64 {
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[i-width], magnitude[i+width]
			default:
				n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}
	return suppressed
}

// hysteresis seeds the edge map from strong pixels and grows it through weak
// pixels by breadth-first search over the 8-neighborhood.
func hysteresis(mag []float64, width, height int, low, high float64) *Map {
	m := &Map{Width: width, Height: height, Pix: make([]uint8, width*height)}

	var queue []int
	for i, v := range mag {
		if v >= high {
			m.Pix[i] = 255
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%width, i/width

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				ni := ny*width + nx
				if m.Pix[ni] == 0 && mag[ni] >= low {
					m.Pix[ni] = 255
					queue = append(queue, ni)
				}
			}
		}
	}
	return m
}
