// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audresynth/utils"
)

const (
	headerSize = 44
	writeBlock = 8192 // samples per Write call
)

// WritePCM16 writes a canonical 44-byte-header 16-bit PCM WAV holding
// interleaved samples for the given channel count. Only an io.Writer is
// needed, so it can stream into buffers and pipes.
func WritePCM16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if sampleRate <= 0 || channels <= 0 || len(samples)%channels != 0 {
		return ErrInvalidLayout
	}

	numChannels := uint16(channels)
	bitsPerSample := uint16(16)
	blockAlign := numChannels * (bitsPerSample / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)
	dataSize := uint32(len(samples) * 2)

	header := make([]byte, headerSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), writeBlock)*2)
	for i := 0; i < len(samples); i += writeBlock {
		block := samples[i:min(i+writeBlock, len(samples))]
		buf = buf[:len(block)*2]

		for j, s := range block {
			binary.LittleEndian.PutUint16(buf[j*2:], uint16(s))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

// WritePlanar16 interleaves planar float samples into 16-bit PCM and
// writes them with WritePCM16.
func WritePlanar16(w io.Writer, sampleRate int, planar [][]float32) error {
	frames, err := planarFrames(planar)
	if err != nil {
		return err
	}

	channels := len(planar)
	samples := make([]int16, frames*channels)
	for c, ch := range planar {
		for f, v := range ch {
			samples[f*channels+c] = utils.Float32ToInt16(v)
		}
	}

	return WritePCM16(w, sampleRate, channels, samples)
}

// Encode writes planar float samples as integer PCM at bitDepth (8, 16, 24
// or 32) through the go-audio encoder. The writer must support seeking so
// the header sizes can be patched on close; the writer itself is not closed.
func Encode(w io.WriteSeeker, sampleRate, bitDepth int, planar [][]float32) error {
	frames, err := planarFrames(planar)
	if err != nil {
		return err
	}
	if sampleRate <= 0 {
		return ErrInvalidLayout
	}

	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	channels := len(planar)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bitDepth,
	}
	for c, ch := range planar {
		for f, v := range ch {
			buf.Data[f*channels+c] = floatToPCM(v, bitDepth)
		}
	}

	enc := gowav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}

	return nil
}

func planarFrames(planar [][]float32) (int, error) {
	if len(planar) == 0 {
		return 0, ErrInvalidLayout
	}

	frames := len(planar[0])
	for _, ch := range planar[1:] {
		if len(ch) != frames {
			return 0, ErrInvalidLayout
		}
	}

	return frames, nil
}

// floatToPCM maps [-1, 1] onto the integer range of bitDepth. 8-bit output
// is offset to unsigned as WAV requires.
func floatToPCM(x float32, bitDepth int) int {
	v := float64(utils.Clamp32(x, -1, 1))

	switch bitDepth {
	case 8:
		return int(v*127) + 128
	case 16:
		return int(utils.Float32ToInt16(float32(v)))
	case 24:
		return int(v * 8388607)
	default:
		return int(v * 2147483647)
	}
}
