// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/utils"
)

const (
	// go-mp3 always yields 16-bit little-endian stereo
	channels   = 2
	frameBytes = channels * 2

	defaultBufSize = 8192
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// bytes of an incomplete frame kept at the front of buf
	carry int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	frames := len(dst) / channels
	if frames == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	need := frames * frameBytes
	if cap(s.buf) < need {
		grown := make([]byte, need)
		copy(grown, s.buf[:s.carry])
		s.buf = grown
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf[s.carry:])
	total := s.carry + n
	usable := total - total%frameBytes

	samples := usable / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = utils.IntToFloat32(int(v), 16)
	}

	s.carry = copy(s.buf, s.buf[usable:total])

	if err == io.EOF {
		return samples, io.EOF
	}
	if err != nil {
		return samples, fmt.Errorf("%w", err)
	}

	return samples, nil
}

// Decoder reads MPEG-1/2 Layer III audio through go-mp3. The output is
// always stereo; mono files are duplicated by the underlying decoder.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 0, defaultBufSize),
	}, nil
}
