// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"fmt"
	"io"

	"github.com/ik5/audresynth/formats/wav"
)

// ExportFileWAV writes a corpus file's converted audio as 16-bit WAV at
// the corpus sample rate.
func (b *Brain) ExportFileWAV(id int, w io.Writer) error {
	b.mu.RLock()
	var f *file
	for _, cand := range b.files {
		if cand.id == id {
			f = cand
			break
		}
	}
	rate := b.sampleRate
	b.mu.RUnlock()

	if f == nil {
		return fmt.Errorf("%w: %d", ErrUnknownFile, id)
	}

	// file audio is never modified after publication
	if err := wav.WritePlanar16(w, rate, f.audio); err != nil {
		return fmt.Errorf("export %q: %w", f.name, err)
	}

	return nil
}
