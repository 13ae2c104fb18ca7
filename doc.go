// SPDX-License-Identifier: EPL-2.0

// Package audresynth is a real-time audio re-synthesis engine.
//
// An Engine slices a continuous stream into fixed-size chunks, lets a
// transformer rewrite every chunk (optionally by matching it against a
// corpus of analysed reference audio) and rebuilds a continuous output
// by overlap-add or sequential playback. The output trails the input by
// exactly Latency() frames, and nothing on the audio path allocates or
// blocks.
//
// # Quick Start
//
//	cfg := config.Default()
//	cfg.Transformer = transform.SimpleBrainMatch
//
//	eng, _ := audresynth.New(cfg)
//	eng.Brain().AddAudioFileFromMemory("pad.wav", "", data)
//
//	// in the audio callback
//	eng.Process(in, out, frames)
//
// # Packages
//
// The engine is assembled from smaller pieces that can be used on their
// own:
//   - audio: sources, resampling, channel mapping and the Chunk type
//   - pool: the fixed chunk pool and its index rings
//   - window, spectral, morph: windows, FFT and spectral blend operators
//   - ola: the overlap-add synthesizer
//   - chunker: the stream orchestrator
//   - brain: the corpus and its matcher
//   - transform: the transformer variants
//   - formats: corpus decoders (WAV, MP3, Ogg Vorbis, AIFF) and WAV output
//   - config: settings with defaults and environment overrides
//
// # Threading
//
// Process, PushAudio, Transform and RenderOutput belong to one audio
// thread. Configuration calls (Apply, SetTransformer, Use) must not run
// concurrently with them. The Brain may be fed and rebuilt from any
// goroutine at any time.
package audresynth
