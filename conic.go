// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ControlPoints is the 4-point input of a conic: P0, P1 and P2 are the
// control points and P3.X holds the weight.
type ControlPoints [4]Point

// NewControlPoints packs a conic's control points and weight.
func NewControlPoints(p0, p1, p2 Point, w float64) ControlPoints {
	return ControlPoints{p0, p1, p2, {X: w}}
}

// Weight returns the conic weight stored in P3.X.
func (cp ControlPoints) Weight() float64 { return cp[3].X }

// Conic returns the curve described by the control points.
func (cp ControlPoints) Conic() Conic {
	return Conic{P0: cp[0], P1: cp[1], P2: cp[2], W: cp.Weight()}
}

// Winding returns the winding sign that makes k positive on the P1 side of
// the chord: +1 for a clockwise turn in y-down device space, -1 for a
// counter-clockwise turn and 0 for collinear control points.
func (cp ControlPoints) Winding() float32 {
	turn := cp[1].Sub(cp[0]).Cross(cp[2].Sub(cp[1]))
	switch {
	case turn > 0:
		return 1
	case turn < 0:
		return -1
	default:
		return 0
	}
}

// Conic is a rational quadratic Bézier arc with weight W > 0.
// W < 1 gives an ellipse segment, W == 1 a parabola and W > 1 a hyperbola.
type Conic struct {
	P0, P1, P2 Point
	W          float64
}

// Eval returns the point at parameter t in [0, 1].
func (c Conic) Eval(t float64) Point {
	mt := 1 - t
	a, b, d := mt*mt, 2*c.W*t*mt, t*t
	den := a + b + d
	return c.P0.Mul(a).Add(c.P1.Mul(b)).Add(c.P2.Mul(d)).Mul(1 / den)
}

// Hull returns the control triangle clipped by the tangent line at T=.5,
// where a conic always reaches its maximum height above the chord.
func (c Conic) Hull() [4]Point {
	p1w := c.P1.Mul(c.W)
	r := 1 / (1 + c.W)
	return [4]Point{
		c.P0,
		c.P0.Add(p1w).Mul(r),
		p1w.Add(c.P2).Mul(r),
		c.P2,
	}
}

// KLM returns the normalized KLM matrix of the conic for the given bloat
// radius and winding sign.
//
// Degenerate conics give a zero normalization width and an infinite or NaN
// matrix; they must be culled by the caller.
func (c Conic) KLM(bloat, wind float64) KLMMatrix {
	x0, y0 := c.P0.X-c.P1.X, c.P0.Y-c.P1.Y
	x2, y2 := c.P2.X-c.P1.X, c.P2.Y-c.P1.Y
	w2 := 2 * c.W

	// Column j holds the coefficients of functional j for the homogeneous
	// position (x, y, 1) relative to P1.
	m := mat.NewDense(3, 3, []float64{
		y2 - y0, w2 * y0, -w2 * y2,
		x0 - x2, -w2 * x0, w2 * x2,
		x2*y0 - x0*y2, 0, 0,
	})

	kwidth := 2 * bloat * wind * (math.Abs(m.At(0, 0)) + math.Abs(m.At(1, 0)))
	m.Scale(1/kwidth, m)

	return KLMMatrix{m: m, anchor: c.P1, kwidth: kwidth}
}

// KLM is the implicit functional triple of a conic at one position.
type KLM struct {
	K, L, M float64
}

// F returns the implicit function k² - l·m, zero exactly on the conic.
func (v KLM) F() float64 {
	return v.K*v.K - v.L*v.M
}

// KLMMatrix maps device positions to KLM space.
type KLMMatrix struct {
	m      *mat.Dense
	anchor Point
	kwidth float64
}

// Anchor returns the local-frame origin, the conic's P1.
func (km KLMMatrix) Anchor() Point { return km.anchor }

// KWidth returns the normalization width of k before scaling: twice the
// bloat times the winding sign times the Manhattan norm of k's gradient.
func (km KLMMatrix) KWidth() float64 { return km.kwidth }

// At returns the coefficient of homogeneous input row for the functional
// col (0 = k, 1 = l, 2 = m).
func (km KLMMatrix) At(row, col int) float64 { return km.m.At(row, col) }

// Apply projects p into KLM space.
func (km KLMMatrix) Apply(p Point) KLM {
	v := mat.NewVecDense(3, []float64{p.X - km.anchor.X, p.Y - km.anchor.Y, 1})
	var klm mat.VecDense
	klm.MulVec(km.m.T(), v)
	return KLM{K: klm.AtVec(0), L: klm.AtVec(1), M: klm.AtVec(2)}
}

// Gradient returns 2·bloat times the device-space gradient of k² - l·m at
// klm, the value written to the grad varying.
func (km KLMMatrix) Gradient(klm KLM, bloat float64) Point {
	// Chain rule restricted to the position-dependent rows of the matrix.
	xy := km.m.Slice(0, 2, 0, 3)
	var g mat.VecDense
	g.MulVec(xy, mat.NewVecDense(3, []float64{2 * klm.K, -klm.M, -klm.L}))
	return Point{X: 2 * bloat * g.AtVec(0), Y: 2 * bloat * g.AtVec(1)}
}

// CurveCoverage returns the unclamped analytic coverage of the curved edge:
// 0.5 on the curve, growing by one per pixel towards the inside.
func CurveCoverage(klm KLM, grad Point) float64 {
	fwidth := math.Abs(grad.X) + math.Abs(grad.Y)
	return 0.5 - klm.F()/fwidth
}

// HullCoverage combines curve coverage with the flat edge opposite the
// curve, which k doubles as. The result is in [0, 1].
func HullCoverage(klm KLM, grad Point) float64 {
	coverage := math.Min(CurveCoverage(klm, grad), 1)
	d := math.Min(klm.K-0.5, 0)
	return math.Max(coverage+d, 0)
}

// FragmentCoverage returns the final fragment coverage for interpolated
// varyings: hull coverage times wind, plus the attenuated corner term
// corner[0]*corner[1] when corner is non-nil.
func FragmentCoverage(klm KLM, grad Point, wind float64, corner *[2]float64) float64 {
	coverage := HullCoverage(klm, grad) * wind
	if corner != nil {
		coverage = corner[0]*corner[1] + coverage
	}
	return coverage
}

// VertexCorner returns the vertex-stage value of the corner varying
// components: (hull coverage at the vertex, 1) scaled by cornerCoverage.
func VertexCorner(klm KLM, grad Point, cornerCoverage [2]float64) [2]float64 {
	h := HullCoverage(klm, grad)
	return [2]float64{h * cornerCoverage[0], cornerCoverage[1]}
}
