// SPDX-License-Identifier: EPL-2.0

package morph

import "errors"

var (
	ErrUnknownType     = errors.New("unknown morph type")
	ErrUnknownWaveform = errors.New("unknown waveform")
	ErrUnknownParam    = errors.New("unknown morph parameter")
)
