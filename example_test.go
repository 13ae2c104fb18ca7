// SPDX-License-Identifier: EPL-2.0

package audresynth_test

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/ik5/audresynth"
	"github.com/ik5/audresynth/config"
	"github.com/ik5/audresynth/formats/wav"
	"github.com/ik5/audresynth/internal/audiotest"
	"github.com/ik5/audresynth/transform"
)

// Example_process shows the audio callback loop: every call pushes a
// block, transforms the finished chunks and renders what the latency
// budget allows.
func Example_process() {
	cfg := config.Default()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.ChunkSize = 256
	cfg.Overlap = false

	eng, err := audresynth.New(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	in := [][]float32{make([]float32, 100)}
	out := [][]float32{make([]float32, 100)}
	rendered := 0
	for range 10 {
		rendered += eng.Process(in, out, 100)
	}

	fmt.Printf("latency %d, rendered %d of 1000\n", eng.Latency(), rendered)
	// Output: latency 256, rendered 744 of 1000
}

// Example_renderOffline runs a whole buffer through the engine and gets
// back output aligned with the input.
func Example_renderOffline() {
	cfg := config.Default()
	cfg.SampleRate = 8000
	cfg.Channels = 2
	cfg.ChunkSize = 512
	cfg.Overlap = false

	eng, err := audresynth.New(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	in := audiotest.Planar(2, 3000, audiotest.Noise(1, 0.5))
	out := eng.RenderOffline(in, 480)

	fmt.Println(len(out[0]), slices.Equal(out[0], in[0]), slices.Equal(out[1], in[1]))
	// Output: 3000 true true
}

// Example_corpus feeds a corpus and switches to a matching transformer.
func Example_corpus() {
	cfg := config.Default()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.ChunkSize = 256
	cfg.Transformer = transform.SimpleBrainMatch

	eng, err := audresynth.New(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	var buf bytes.Buffer
	tone := audiotest.Planar(1, 1280, audiotest.Sine(8000, 440, 0.5))
	if err := wav.WritePlanar16(&buf, 8000, tone); err != nil {
		fmt.Println(err)
		return
	}

	id := eng.Brain().AddAudioFileFromMemory("tone.wav", "", buf.Bytes())
	info, _ := eng.Brain().File(id)

	fmt.Printf("file %d: %d frames, %d chunks\n", info.ID, info.Frames, info.Chunks)
	fmt.Println(eng.Transformer().Kind())
	// Output:
	// file 0: 1280 frames, 9 chunks
	// simple-brain-match
}

// Example_decodeToPlanar decodes an in-memory WAV file into mono planar
// samples.
func Example_decodeToPlanar() {
	var buf bytes.Buffer
	stereo := audiotest.Planar(2, 1600, audiotest.Constant(0.25))
	if err := wav.WritePlanar16(&buf, 16000, stereo); err != nil {
		fmt.Println(err)
		return
	}

	planar, err := audresynth.DecodeToPlanar(&buf, "wav", 16000, 1)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%d channel, %d frames\n", len(planar), len(planar[0]))
	// Output: 1 channel, 1600 frames
}
