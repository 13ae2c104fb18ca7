// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/formats/aiff"
	"github.com/ik5/audresynth/formats/mp3"
	"github.com/ik5/audresynth/formats/vorbis"
	"github.com/ik5/audresynth/formats/wav"
)

// Canonical registry keys.
const (
	WAV  = "wav"
	MP3  = "mp3"
	Ogg  = "ogg"
	AIFF = "aiff"
)

// NewRegistry returns a registry with every built-in decoder, including the
// common extension aliases (wave, oga, aif).
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()

	reg.Register(WAV, wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register(MP3, mp3.Decoder{})
	reg.Register(Ogg, vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register(AIFF, aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	return reg
}

// Detect sniffs the container from its leading bytes.
func Detect(data []byte) (string, bool) {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return WAV, true
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return AIFF, true
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS")):
		return Ogg, true
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return MP3, true
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return MP3, true
	}

	return "", false
}

// FormatFromName maps a file name to a registry key by extension.
// The result is only a hint; it is not checked against a registry.
func FormatFromName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}

	return ext[1:]
}

// Open decodes an in-memory file. An empty format sniffs the content; a
// format the registry does not know falls back to sniffing as well.
func Open(reg *audio.Registry, format string, data []byte) (audio.Source, error) {
	if _, ok := reg.Get(format); format == "" || !ok {
		detected, found := Detect(data)
		if !found {
			if format == "" {
				return nil, ErrUnrecognized
			}
			return nil, fmt.Errorf("%w: %q", ErrUnrecognized, format)
		}
		format = detected
	}

	return reg.Decode(format, bytes.NewReader(data))
}
