// SPDX-License-Identifier: EPL-2.0

// Package window generates analysis and synthesis window coefficients.
//
// Four shapes are supported. Each carries a canonical overlap fraction and
// a magnitude-preserving rescale constant, both fixed per shape:
//
//	shape        overlap  rescale
//	Rectangular  0        1
//	Hann         0.5      2
//	Hamming      0.5      1/0.54
//	Blackman     0.75     1/0.42
//
// NextValidFFTSize picks transform lengths: a multiple of 32 whose
// remaining factors are only 2, 3 and 5. The exact search matters because
// corpus snapshots record the resulting size.
package window
