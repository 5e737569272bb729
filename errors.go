// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import "errors"

var (
	// ErrNilContext is returned when a shader stage receives a nil
	// generation context.
	ErrNilContext = errors.New("ccpr: nil generation context")

	// ErrStageOrder is returned when shader stages are emitted out of
	// order: varyings twice, fragment code before varyings, or a context
	// that belongs to a different curve shader.
	ErrStageOrder = errors.New("ccpr: shader stages emitted out of order")

	// ErrInvalidBloat is returned when the antialiasing bloat radius is
	// not a positive finite number.
	ErrInvalidBloat = errors.New("ccpr: bloat radius must be positive")
)
