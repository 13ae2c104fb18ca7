// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/audresynth/audio"
	"github.com/ik5/audresynth/internal/audiotest"
)

// Example_channelMapper shows a stereo source folded down to mono.
func Example_channelMapper() {
	source := audiotest.NewSineSource(16000, 2, 16000, 440.0)
	mono := audio.NewMonoMixer(source)

	fmt.Printf("Input channels: %d\n", source.Channels())
	fmt.Printf("Output channels: %d\n", mono.Channels())
	fmt.Printf("Sample rate: %d Hz\n", mono.SampleRate())
	// Output:
	// Input channels: 2
	// Output channels: 1
	// Sample rate: 16000 Hz
}

// Example_readPlanar decodes a whole source into per-channel slices.
func Example_readPlanar() {
	source := audiotest.NewConstantSource(8000, 1, 4000, 0.5)

	planar, err := audio.ReadPlanar(source, 8000, 2, 1024)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("channels=%d frames=%d first=%.1f\n", len(planar), len(planar[0]), planar[1][0])
	// Output: channels=2 frames=4000 first=0.5
}

// Example_chunk fills a chunk and measures its level.
func Example_chunk() {
	c := audio.NewChunk(2, 4)
	for ch := range c.Samples {
		for i := range c.Samples[ch] {
			c.Samples[ch][i] = 0.5
		}
	}
	c.ValidFrames = 4

	fmt.Printf("frames=%d rms=%.2f\n", c.Frames(), c.ComputeRMS())
	// Output: frames=4 rms=0.50
}
