// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	// ErrNotWavFile indicates the input is not a readable RIFF/WAVE container.
	ErrNotWavFile = errors.New("not a WAV file")

	// ErrUnsupportedEncoding indicates a format tag other than integer PCM.
	ErrUnsupportedEncoding = errors.New("only integer PCM WAV is supported")

	// ErrUnsupportedBitDepth indicates a sample size outside 8/16/24/32 bits.
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")

	// ErrMissingData indicates the container has no data chunk.
	ErrMissingData = errors.New("WAV data chunk not found")

	// ErrInvalidLayout indicates planar input with mismatched channel lengths
	// or an invalid rate/channel count handed to a writer.
	ErrInvalidLayout = errors.New("invalid WAV layout")
)
