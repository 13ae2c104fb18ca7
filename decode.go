// SPDX-License-Identifier: EPL-2.0

package audresynth

import (
	"fmt"
	"io"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/formats"
)

// NewDecoderRegistry returns a registry with the WAV, MP3, Ogg Vorbis and
// AIFF decoders under their usual extensions.
func NewDecoderRegistry() *audio.Registry {
	return formats.NewRegistry()
}

// DecodeToPlanar decodes r with the registry's decoders and converts the
// result to rate and channels, one slice per channel. An empty or unknown
// format falls back to content sniffing.
//
// The pipeline is decode -> resample -> channel map -> collect:
//
//	samples, err := audresynth.DecodeToPlanar(f, "mp3", 48000, 2)
func DecodeToPlanar(r io.Reader, format string, rate, channels int) ([][]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	src, err := formats.Open(NewDecoderRegistry(), format, data)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	defer src.Close()

	planar, err := audio.ReadPlanar(src, rate, channels, src.BufSize())
	if err != nil {
		return nil, fmt.Errorf("convert audio: %w", err)
	}

	return planar, nil
}
