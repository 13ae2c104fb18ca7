// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"context"
	"math"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/spectral"
	"github.com/ik5/audresynth/window"
)

// Features describe one channel of a chunk, or the average over channels.
type Features struct {
	RMS          float32
	ZeroCrossing float32 // Hz
	Dominant     float32 // Hz, strongest FFT bin
	Harmonic     spectral.HarmonicVector
}

// Chunk is an analysed corpus chunk. Samples hold chunk-size frames taken
// from the file at StartSample; ValidFrames excludes tail padding.
type Chunk struct {
	audio.Chunk

	FileID     int
	Position   int // index of the chunk within its file
	Average    Features
	PerChannel []Features
}

// EstimatedChunkCount is the capacity estimate for a file of the given
// length, assuming half-chunk overlap.
func EstimatedChunkCount(frames, chunkSize int) int {
	if chunkSize <= 0 {
		return 1
	}
	return max(1, frames*2/chunkSize-1)
}

// ChunkHop is the distance between consecutive corpus chunks.
func ChunkHop(chunkSize int) int { return max(1, chunkSize/2) }

// chunkLayout returns how many chunks cover frames and how many zero
// frames pad the last one.
func chunkLayout(frames, chunkSize int) (count, padding int) {
	if frames <= chunkSize {
		return 1, chunkSize - frames
	}

	hop := ChunkHop(chunkSize)
	count = (frames-chunkSize+hop-1)/hop + 1
	padding = (count-1)*hop + chunkSize - frames

	return count, padding
}

// Analyzer computes chunk features. It keeps its own FFT and scratch so a
// transformer can run it on the audio thread once warmed up; it is not
// safe for concurrent use.
type Analyzer struct {
	sampleRate int
	winType    window.Type
	fft        *spectral.Processor
	win        *window.Window
	scratch    audio.Chunk
}

// NewAnalyzer prepares an analyzer for chunks of chunkSize frames.
func NewAnalyzer(sampleRate, chunkSize int, t window.Type) *Analyzer {
	a := &Analyzer{
		sampleRate: sampleRate,
		winType:    t,
		fft:        spectral.New(),
		win:        window.New(t, chunkSize),
	}
	a.fft.Prepare(window.NextValidFFTSize(chunkSize))

	return a
}

// SampleRate is the rate frequencies are reported against.
func (a *Analyzer) SampleRate() int { return a.sampleRate }

func (a *Analyzer) window(frames int) *window.Window {
	if a.winType == window.Rectangular {
		return nil
	}
	if a.win.Size() != frames {
		a.win.Set(a.winType, frames)
	}

	return a.win
}

// Transform stores the windowed spectrum of c in c itself.
func (a *Analyzer) Transform(c *audio.Chunk) bool {
	return a.fft.Forward(c, a.window(c.Frames()))
}

// Analyze fills perChannel (up to its length) and returns the channel
// average. A spectrum already on c is reused only when it was taken with
// the analyzer's window; otherwise the spectrum is computed on a private
// copy, leaving c untouched. The average RMS is the RMS over all channels.
func (a *Analyzer) Analyze(c *audio.Chunk, perChannel []Features) Features {
	var avg Features
	channels := c.Channels()
	valid := min(c.ValidFrames, c.Frames())
	if channels == 0 || valid <= 0 {
		clear(perChannel)
		return avg
	}

	spec := c
	if !c.SpectrumWith(a.winType, c.Frames()) {
		if a.scratch.Channels() != channels || a.scratch.Frames() != c.Frames() {
			a.scratch.Resize(channels, c.Frames())
		}
		a.scratch.CopyFrom(c)
		a.fft.Forward(&a.scratch, a.window(a.scratch.Frames()))
		spec = &a.scratch
	}

	var sumSq float64
	var sum Features
	for ch := range channels {
		samples := c.Samples[ch][:valid]
		f := Features{
			RMS:          spectral.RMS(samples),
			ZeroCrossing: spectral.ZeroCrossingFrequency(samples, a.sampleRate),
			Dominant:     spectral.DominantFrequency(spec.Spectrum[ch], spec.FFTSize, a.sampleRate),
			Harmonic:     spectral.HarmonicFeatures(spec.Spectrum[ch], spec.FFTSize, a.sampleRate),
		}
		if ch < len(perChannel) {
			perChannel[ch] = f
		}

		sumSq += float64(f.RMS) * float64(f.RMS)
		sum.ZeroCrossing += f.ZeroCrossing
		sum.Dominant += f.Dominant
		for i, v := range f.Harmonic {
			sum.Harmonic[i] += v
		}
	}

	n := float32(channels)
	avg.RMS = float32(math.Sqrt(sumSq / float64(channels)))
	avg.ZeroCrossing = sum.ZeroCrossing / n
	avg.Dominant = sum.Dominant / n
	for i, v := range sum.Harmonic {
		avg.Harmonic[i] = v / n
	}

	return avg
}

// split cuts planar audio into analysed chunks. tick is called after each
// chunk; ctx is checked before each one.
func (a *Analyzer) split(ctx context.Context, planar [][]float32, fileID, chunkSize int, tick func()) ([]*Chunk, int, error) {
	frames := len(planar[0])
	count, padding := chunkLayout(frames, chunkSize)
	hop := ChunkHop(chunkSize)

	chunks := make([]*Chunk, 0, max(count, EstimatedChunkCount(frames, chunkSize)))
	for i := range count {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		start := i * hop
		c := &Chunk{
			FileID:     fileID,
			Position:   i,
			PerChannel: make([]Features, len(planar)),
		}
		c.Resize(len(planar), chunkSize)
		for ch, src := range planar {
			copy(c.Samples[ch], src[start:min(start+chunkSize, frames)])
		}
		c.ValidFrames = min(chunkSize, frames-start)
		c.StartSample = int64(start)
		c.HasStart = true
		c.ComputeRMS()

		a.Transform(&c.Chunk)
		c.Average = a.Analyze(&c.Chunk, c.PerChannel)

		chunks = append(chunks, c)
		if tick != nil {
			tick()
		}
	}

	return chunks, padding, nil
}
