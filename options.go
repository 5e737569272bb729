// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import "math"

// DefaultBloat is the default antialiasing bloat radius in device pixels.
const DefaultBloat = 0.5

// Option configures program generation and software rasterization.
//
// Example:
//
//	// Hull-clipped conic with corner attenuation
//	prog, err := ccpr.GenerateProgram(ccpr.ConicShader{},
//	    ccpr.WithHull(true), ccpr.WithCornerCoverage(true))
type Option func(*options)

// options holds the feature flags of a single generation pass.
type options struct {
	hull           bool
	cornerCoverage bool
	bloat          float32
}

// defaultOptions returns the default generation options: no hull, no
// corner coverage, half-pixel bloat.
func defaultOptions() options {
	return options{
		bloat: DefaultBloat,
	}
}

func buildOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.bloat > 0) || math.IsInf(float64(o.bloat), 0) {
		return o, ErrInvalidBloat
	}
	return o, nil
}

// WithHull clips the drawn geometry to the conic's 4-point hull instead of
// its control triangle.
func WithHull(enabled bool) Option {
	return func(o *options) {
		o.hull = enabled
	}
}

// WithCornerCoverage adds a per-instance corner attenuation input and the
// additive corner term to the fragment coverage.
func WithCornerCoverage(enabled bool) Option {
	return func(o *options) {
		o.cornerCoverage = enabled
	}
}

// WithBloat sets the antialiasing bloat radius in device pixels.
// It must be positive.
func WithBloat(bloat float32) Option {
	return func(o *options) {
		o.bloat = bloat
	}
}
