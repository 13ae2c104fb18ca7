// SPDX-License-Identifier: EPL-2.0

// Package morph blends two ordered spectra (see package spectral for the
// layout) into one.
//
// The first input, a, is the analysed input chunk; the second, b, is what
// the transformer produced. Every operator reduces to b when it has
// nothing to do, so None is a plain copy of b.
//
//	CrossSynthesis   log-domain magnitude blend, unit-phasor phase blend
//	SpectralVocoder  b's fine structure under a's smoothed envelope
//	CepstralMorph    cepstral envelopes interpolated over b's fine structure
//	HarmonicMorph    cross-synthesis of both residuals, b's series re-added
//	WaveMorph        cross-synthesis of a with b's residual, b's series re-added
//	SpectralMasking  b gated by a's relative magnitude
//
// The harmonic operators remove a theoretical square, triangle or
// sawtooth series built on each input's strongest bin before blending,
// then put the target's series back so its waveform shape survives the
// blend.
//
// An Engine owns the scratch buffers. After Prepare for the transform size
// in use, Apply does not allocate. dst may alias either input.
package morph
