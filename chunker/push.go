// SPDX-License-Identifier: EPL-2.0

package chunker

import "github.com/ik5/audresynth/pool"

// PushAudio appends frames from src, one slice per channel, and emits a
// chunk every time the accumulator fills. Sources with fewer channels than
// the chunker are reused round-robin; a nil channel reads as silence. It
// returns the number of frames consumed.
func (c *Chunker) PushAudio(src [][]float32, frames int) int {
	if !c.configured || len(src) == 0 || frames <= 0 {
		return 0
	}
	for _, s := range src {
		if s != nil {
			frames = min(frames, len(s))
		}
	}

	consumed := 0
	for consumed < frames {
		n := min(frames-consumed, c.chunkSize-c.fill)
		for ch, dst := range c.scratch {
			s := src[ch%len(src)]
			if s == nil {
				clear(dst[c.fill : c.fill+n])
				continue
			}
			copy(dst[c.fill:c.fill+n], s[consumed:consumed+n])
		}
		c.fill += n
		consumed += n
		c.totalIn += int64(n)

		if c.fill == c.chunkSize {
			c.emit()
		}
	}

	return consumed
}

// emit moves the full accumulator into a pool slot and advances by one
// hop. When no slot is free the hop is shed instead.
func (c *Chunker) emit() {
	slot := c.pool.Acquire()
	if slot == pool.NoSlot {
		c.stats.ShedHops++
		c.advance()
		return
	}

	in := c.pool.Input(slot)
	for ch, s := range c.scratch {
		copy(in.Samples[ch], s)
	}
	in.ValidFrames = c.chunkSize
	in.StartSample = c.totalIn - int64(c.chunkSize)
	in.HasStart = true
	in.ComputeRMS()
	if c.spectralActive() {
		c.fft.Forward(in, c.forwardWindow())
	}

	win := c.pool.Window()
	if win.Full() {
		c.pool.PopRelease(win)
	}
	c.pool.RetainInto(win, slot)

	pending := c.pool.Pending()
	if pending.Full() {
		c.pool.PopRelease(pending)
		c.stats.DroppedPending++
	}
	c.pool.RetainInto(pending, slot)

	c.pool.Release(slot)
	c.stats.Chunks++
	c.advance()
}

func (c *Chunker) advance() {
	for _, s := range c.scratch {
		copy(s, s[c.hop:c.fill])
	}
	c.fill -= c.hop
}
