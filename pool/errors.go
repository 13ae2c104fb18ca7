// SPDX-License-Identifier: EPL-2.0

package pool

import "errors"

var (
	ErrInvalidDimensions = errors.New("pool dimensions must be positive")
)
