// SPDX-License-Identifier: EPL-2.0

package chunker

import "github.com/ik5/audresynth/pool"

// RenderOutput writes up to frames frames into the first outChannels
// slices of dst and returns how many carry audio; the rest of the block is
// zero-filled. Engine channels are mapped onto output channels modulo the
// engine channel count. agc selects gain compensation for this render and
// for the following commits.
func (c *Chunker) RenderOutput(dst [][]float32, frames, outChannels int, agc bool) int {
	c.agc = agc

	outChannels = min(outChannels, len(dst))
	for _, d := range dst[:max(outChannels, 0)] {
		frames = min(frames, len(d))
	}
	if !c.configured || outChannels <= 0 || frames <= 0 {
		return 0
	}

	budget := c.totalIn - int64(c.chunkSize) - int64(c.extra) - c.totalOut
	produced := 0

	for produced < frames && budget > 0 {
		block := int(min(int64(min(frames-produced, c.chunkSize)), budget))

		var n int
		if c.olaMode {
			for ch := range c.view {
				c.view[ch] = c.render[ch][:block]
			}
			n = c.synth.RenderOutput(c.view, block, block)
		} else {
			n = c.playback(block)
		}
		if n == 0 {
			break
		}

		for och := range outChannels {
			copy(dst[och][produced:produced+n], c.render[och%c.channels][:n])
		}
		produced += n
		budget -= int64(n)
	}

	if produced < frames {
		if c.totalOut == 0 && produced > 0 {
			// Priming: right-align so the first frame lands exactly one
			// latency after the first input frame.
			gap := frames - produced
			for och := range outChannels {
				d := dst[och][:frames]
				copy(d[gap:], d[:produced])
				clear(d[:gap])
			}
		} else {
			for och := range outChannels {
				clear(dst[och][produced:frames])
			}
			if c.totalOut > 0 {
				c.stats.Underruns++
			}
		}
	}

	c.totalOut += int64(produced)
	return produced
}

// playback copies up to frames committed frames, in commit order, into
// the render scratch.
func (c *Chunker) playback(frames int) int {
	n := 0
	for n < frames {
		if c.playSlot == pool.NoSlot {
			c.playSlot = c.pool.Ready().Pop()
			c.playPos = 0
			if c.playSlot == pool.NoSlot {
				break
			}
		}

		out := c.pool.Output(c.playSlot)
		k := min(frames-n, out.ValidFrames-c.playPos)
		gain := float32(1)
		if c.agc {
			gain = c.gains[c.playSlot]
		}
		for ch, dst := range c.render {
			src := out.Samples[ch][c.playPos : c.playPos+k]
			for i, v := range src {
				dst[n+i] = v * gain
			}
		}
		n += k
		c.playPos += k

		if c.playPos >= out.ValidFrames {
			c.pool.Release(c.playSlot)
			c.playSlot = pool.NoSlot
		}
	}
	return n
}
