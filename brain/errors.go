// SPDX-License-Identifier: EPL-2.0

package brain

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid brain configuration")
	ErrEmptyAudio      = errors.New("audio has no frames")
	ErrUnknownFile     = errors.New("unknown file id")
	ErrBadSnapshot     = errors.New("malformed brain snapshot")
	ErrSnapshotVersion = errors.New("unsupported brain snapshot version")
)
