package page

import (
	"math"

	"page-scanner/internal/raster"
	"page-scanner/pkg/geometry"
)

// Rectify resamples src through the inverse homography so the quadrilateral q
// fills an axis-aligned rectangle of outWidth x outHeight. When either
// dimension is zero the output size is derived from the quadrilateral's edge
// lengths (longest of each opposing pair). Samples falling outside the source
// read as white. Returns the rectified image and the forward transform.
func Rectify(src *raster.Image, q Quad, outWidth, outHeight int) (*raster.Image, Homography, error) {
	if outWidth <= 0 || outHeight <= 0 {
		outWidth, outHeight = targetSize(q)
	}

	dst := Quad{
		{X: 0, Y: 0},
		{X: float64(outWidth - 1), Y: 0},
		{X: float64(outWidth - 1), Y: float64(outHeight - 1)},
		{X: 0, Y: float64(outHeight - 1)},
	}

	h, err := EstimateHomography(q, dst)
	if err != nil {
		return nil, Homography{}, err
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, Homography{}, err
	}

	var out *raster.Image
	if src.Channels == raster.Grayscale {
		out = raster.NewGray(outWidth, outHeight)
	} else {
		out = raster.NewRGB(outWidth, outHeight)
	}

	for y := 0; y < outHeight; y++ {
		for x := 0; x < outWidth; x++ {
			sp := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			sampleBilinear(src, sp, out, x, y)
		}
	}
	return out, h, nil
}

// targetSize derives the fronto-parallel output rectangle from the
// quadrilateral's observed edge lengths.
func targetSize(q Quad) (int, int) {
	top := q[0].Distance(q[1])
	bottom := q[3].Distance(q[2])
	left := q[0].Distance(q[3])
	right := q[1].Distance(q[2])

	w := int(math.Round(math.Max(top, bottom)))
	h := int(math.Round(math.Max(left, right)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// sampleBilinear writes the bilinearly interpolated source value at sp into
// out(x, y). Out-of-range sample positions produce white, matching the page
// background.
func sampleBilinear(src *raster.Image, sp geometry.Point2D, out *raster.Image, x, y int) {
	if sp.X < -0.5 || sp.X > float64(src.Width)-0.5 ||
		sp.Y < -0.5 || sp.Y > float64(src.Height)-0.5 {
		if out.Channels == raster.Grayscale {
			out.SetGray(x, y, 0xff)
		} else {
			out.SetRGB(x, y, 0xff, 0xff, 0xff)
		}
		return
	}

	x0 := int(math.Floor(sp.X))
	y0 := int(math.Floor(sp.Y))
	fx := sp.X - float64(x0)
	fy := sp.Y - float64(y0)

	// raster.Image.At clamps, so the x0+1/y0+1 reads are safe at the border.
	p00 := src.At(x0, y0)
	p10 := src.At(x0+1, y0)
	p01 := src.At(x0, y0+1)
	p11 := src.At(x0+1, y0+1)

	for c := 0; c < src.Channels; c++ {
		top := float64(p00[c])*(1-fx) + float64(p10[c])*fx
		bottom := float64(p01[c])*(1-fx) + float64(p11[c])*fx
		v := uint8(math.Round(top*(1-fy) + bottom*fy))
		if out.Channels == raster.Grayscale {
			out.SetGray(x, y, v)
		} else {
			i := (y*out.Width + x) * raster.RGB
			out.Pix[i+c] = v
		}
	}
}
