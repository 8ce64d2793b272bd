package page

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"page-scanner/pkg/geometry"
)

// detEpsilon is the determinant magnitude below which a homography is
// treated as singular.
const detEpsilon = 1e-10

// Homography is a 3x3 projective transform in row-major order.
type Homography [3][3]float64

// EstimateHomography computes the projective transform mapping the four
// corners of src onto the four corners of dst by solving the 8x8 direct
// linear system. The transform is normalized so H[2][2] == 1.
func EstimateHomography(src, dst Quad) (Homography, error) {
	// Two equations per correspondence:
	//   u = (h11 x + h12 y + h13) / (h31 x + h32 y + 1)
	//   v = (h21 x + h22 y + h23) / (h31 x + h32 y + 1)
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -u*x)
		A.Set(i*2, 7, -u*y)
		B.SetVec(i*2, u)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -v*x)
		A.Set(i*2+1, 7, -v*y)
		B.SetVec(i*2+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateHomography, err)
	}

	h := Homography{
		{params.AtVec(0), params.AtVec(1), params.AtVec(2)},
		{params.AtVec(3), params.AtVec(4), params.AtVec(5)},
		{params.AtVec(6), params.AtVec(7), 1},
	}

	if math.Abs(h.Det()) < detEpsilon {
		return Homography{}, fmt.Errorf("%w: |det| below epsilon", ErrDegenerateHomography)
	}
	return h, nil
}

// Det returns the determinant of the transform matrix.
func (h Homography) Det() float64 {
	m := mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})
	return mat.Det(m)
}

// Apply maps a point through the transform, performing the projective divide.
func (h Homography) Apply(p geometry.Point2D) geometry.Point2D {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if w == 0 {
		return geometry.Point2D{X: math.Inf(1), Y: math.Inf(1)}
	}
	return geometry.Point2D{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}
}

// Inverse returns the inverse transform.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateHomography, err)
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = inv.At(r, c)
		}
	}
	return out, nil
}
