// Package raster provides the pixel buffer type passed between pipeline stages.
package raster

import (
	"errors"
	"image"
)

// ErrInvalidInput reports a missing, corrupt, or zero-area source image.
var ErrInvalidInput = errors.New("invalid input image")

// Channel depths supported by Image.
const (
	Grayscale = 1
	RGB       = 3
)

// Image is a row-major pixel buffer with fixed channel depth.
// len(Pix) == Width*Height*Channels always holds. An Image is never mutated
// after construction; transformations produce a new Image.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewGray allocates a single-channel image of the given size.
func NewGray(width, height int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: Grayscale,
		Pix:      make([]uint8, width*height),
	}
}

// NewRGB allocates a three-channel image of the given size.
func NewRGB(width, height int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: RGB,
		Pix:      make([]uint8, width*height*RGB),
	}
}

// FromImage converts a decoded image.Image into a three-channel Image.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	img := NewRGB(bounds.Dx(), bounds.Dy())

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			img.Pix[i] = uint8(r >> 8)
			img.Pix[i+1] = uint8(g >> 8)
			img.Pix[i+2] = uint8(b >> 8)
			i += RGB
		}
	}
	return img
}

// ToImage converts the buffer back to a standard image for encoding or for
// handing to image libraries.
func (img *Image) ToImage() image.Image {
	if img.Channels == Grayscale {
		out := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
		copy(out.Pix, img.Pix)
		return out
	}

	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for p, i := 0, 0; i < len(img.Pix); p, i = p+4, i+RGB {
		out.Pix[p] = img.Pix[i]
		out.Pix[p+1] = img.Pix[i+1]
		out.Pix[p+2] = img.Pix[i+2]
		out.Pix[p+3] = 0xff
	}
	return out
}

// At returns the channel values at (x, y). Out-of-range coordinates are
// clamped to the nearest valid pixel.
func (img *Image) At(x, y int) []uint8 {
	x = clamp(x, 0, img.Width-1)
	y = clamp(y, 0, img.Height-1)
	i := (y*img.Width + x) * img.Channels
	return img.Pix[i : i+img.Channels]
}

// GrayAt returns the luminance at (x, y) using ITU-R BT.601 weights for
// color images, or the stored value for grayscale images.
func (img *Image) GrayAt(x, y int) uint8 {
	px := img.At(x, y)
	if img.Channels == Grayscale {
		return px[0]
	}
	return uint8(0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2]))
}

// Gray returns a single-channel luminance copy of the image.
func (img *Image) Gray() *Image {
	if img.Channels == Grayscale {
		out := NewGray(img.Width, img.Height)
		copy(out.Pix, img.Pix)
		return out
	}

	out := NewGray(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.Pix[y*img.Width+x] = img.GrayAt(x, y)
		}
	}
	return out
}

// SetGray stores a single-channel value. Only valid on grayscale images;
// used by stages while building a result image they exclusively own.
func (img *Image) SetGray(x, y int, v uint8) {
	img.Pix[y*img.Width+x] = v
}

// SetRGB stores a three-channel value. Only valid on RGB images.
func (img *Image) SetRGB(x, y int, r, g, b uint8) {
	i := (y*img.Width + x) * RGB
	img.Pix[i] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
