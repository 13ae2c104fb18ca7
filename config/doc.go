// SPDX-License-Identifier: EPL-2.0

// Package config holds the engine settings.
//
// Default returns a working configuration; FromEnv overlays AUDRESYNTH_*
// environment variables on it. Neither validates: call Validate before
// handing a Config to the engine.
package config
