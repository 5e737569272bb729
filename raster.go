// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"image"
	"math"

	"golang.org/x/image/vector"
)

// CoverageMask is a CPU coverage-count target. Each texel accumulates the
// signed coverage of every curve rasterized into it, like the R16Float
// target of the GPU programs.
type CoverageMask struct {
	Width, Height int
	Data          []float32
}

// NewCoverageMask creates a zeroed mask.
func NewCoverageMask(width, height int) *CoverageMask {
	return &CoverageMask{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// At returns the accumulated coverage at (x, y), or 0 outside the mask.
func (m *CoverageMask) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Data[y*m.Width+x]
}

// Clear resets all coverage to zero.
func (m *CoverageMask) Clear() {
	clear(m.Data)
}

// Gray renders |coverage| clamped to [0, 1], which is the non-zero fill
// rule resolve of the accumulated counts.
func (m *CoverageMask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, c := range m.Data {
		v := math.Min(math.Abs(float64(c)), 1)
		img.Pix[i] = uint8(v*255 + 0.5)
	}
	return img
}

// RasterizeCoverage evaluates the conic program for one instance on the CPU
// and accumulates its coverage into dst.
//
// The drawn geometry (hull or control triangle) is scan converted with
// golang.org/x/image/vector; every touched pixel is shaded at its centre
// with the same formulas the generated program runs. KLM and the gradient
// are affine in position, so evaluating them directly equals GPU
// interpolation. The corner varying is interpolated barycentrically across
// the drawn triangles.
func RasterizeCoverage(dst *CoverageMask, inst Instance, opts ...Option) error {
	o, err := buildOptions(opts)
	if err != nil {
		return err
	}
	if dst.Width == 0 || dst.Height == 0 {
		return nil
	}

	c := inst.Points.Conic()
	bloat := float64(o.bloat)
	wind := float64(inst.Wind)
	klm := c.KLM(bloat, wind)

	verts := drawnVertices(c, o.hull)
	tris := drawnTriangles(o.hull)

	var corners [][2]float64
	if o.cornerCoverage {
		cc := [2]float64{float64(inst.Corner[0]), float64(inst.Corner[1])}
		corners = make([][2]float64, len(verts))
		for i, v := range verts {
			vk := klm.Apply(v)
			corners[i] = VertexCorner(vk, klm.Gradient(vk, bloat), cc)
		}
	}

	alpha := coverageFootprint(dst.Width, dst.Height, verts)
	b := alpha.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if alpha.AlphaAt(x, y).A == 0 {
				continue
			}
			p := Pt(float64(x)+0.5, float64(y)+0.5)
			pk := klm.Apply(p)
			grad := klm.Gradient(pk, bloat)

			var corner *[2]float64
			if corners != nil {
				cv := interpolateCorner(p, verts, tris, corners)
				corner = &cv
			}
			dst.Data[y*dst.Width+x] += float32(FragmentCoverage(pk, grad, wind, corner))
		}
	}
	return nil
}

// drawnVertices returns the polygon the program draws.
func drawnVertices(c Conic, hull bool) []Point {
	if hull {
		h := c.Hull()
		return h[:]
	}
	return []Point{c.P0, c.P1, c.P2}
}

// drawnTriangles matches the vertex index order of generated programs.
func drawnTriangles(hull bool) [][3]int {
	if hull {
		return [][3]int{{0, 1, 2}, {0, 2, 3}}
	}
	return [][3]int{{0, 1, 2}}
}

// coverageFootprint scan converts the drawn polygon into an alpha mask.
func coverageFootprint(width, height int, verts []Point) *image.Alpha {
	r := vector.NewRasterizer(width, height)
	r.MoveTo(float32(verts[0].X), float32(verts[0].Y))
	for _, v := range verts[1:] {
		r.LineTo(float32(v.X), float32(v.Y))
	}
	r.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

// interpolateCorner interpolates the per-vertex corner values at p using
// the triangle that contains p, or the closest one for pixels on the
// antialiased rim of the footprint.
func interpolateCorner(p Point, verts []Point, tris [][3]int, corners [][2]float64) [2]float64 {
	best := math.Inf(-1)
	var out [2]float64
	for _, t := range tris {
		u, v, w, ok := barycentric(p, verts[t[0]], verts[t[1]], verts[t[2]])
		if !ok {
			continue
		}
		if m := math.Min(u, math.Min(v, w)); m > best {
			best = m
			for i := range out {
				out[i] = u*corners[t[0]][i] + v*corners[t[1]][i] + w*corners[t[2]][i]
			}
		}
	}
	return out
}

// barycentric returns the barycentric coordinates of p in triangle abc.
// ok is false for degenerate triangles.
func barycentric(p, a, b, c Point) (u, v, w float64, ok bool) {
	area := b.Sub(a).Cross(c.Sub(a))
	if area == 0 {
		return 0, 0, 0, false
	}
	v = p.Sub(a).Cross(c.Sub(a)) / area
	w = b.Sub(a).Cross(p.Sub(a)) / area
	return 1 - v - w, v, w, true
}
