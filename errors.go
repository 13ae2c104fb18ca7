// SPDX-License-Identifier: EPL-2.0

package audresynth

import "errors"

var (
	ErrBrainMismatch = errors.New("brain sample rate or channel count differs from the engine")
	ErrNoTransformer = errors.New("no transformer")
)
