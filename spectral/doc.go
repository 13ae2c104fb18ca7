// SPDX-License-Identifier: EPL-2.0

// Package spectral moves chunks between the time and frequency domains and
// extracts the per-chunk features the corpus matcher works with.
//
// # Ordered spectrum layout
//
// A real transform of size N has N/2+1 bins. DC and Nyquist are real, so
// the spectrum fits in exactly N floats:
//
//	[0]      DC
//	[1]      Nyquist (bin N/2)
//	[2k]     real part of bin k, 1 <= k < N/2
//	[2k+1]   imaginary part of bin k
//
// Transform sizes come from window.NextValidFFTSize, so N is always even.
//
// # Processor
//
// A Processor caches one gonum FFT per size. After Prepare for the sizes in
// use, Forward and Inverse do not allocate, except to grow a chunk's
// spectrum storage the first time that chunk is transformed.
//
//	p := spectral.New()
//	p.Forward(chunk, analysisWindow) // chunk.Spectrum, chunk.FFTSize
//	hz := spectral.DominantFrequency(chunk.Spectrum[0], chunk.FFTSize, 48000)
//	p.Inverse(chunk)                 // back to chunk.Samples
package spectral
