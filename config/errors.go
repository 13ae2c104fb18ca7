// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var (
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidChannels   = errors.New("invalid channel count")
	ErrInvalidChunkSize  = errors.New("invalid chunk size")
	ErrInvalidWindowSize = errors.New("invalid buffer window size")
	ErrInvalidEnum       = errors.New("invalid enumerated setting")
	ErrInvalidAmount     = errors.New("amount out of range")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidEnv        = errors.New("invalid environment value")
)
