// SPDX-License-Identifier: EPL-2.0

package chunker

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid chunker configuration")
)
