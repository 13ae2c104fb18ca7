// SPDX-License-Identifier: EPL-2.0

package window

import "errors"

var (
	ErrUnknownType = errors.New("unknown window type")
)
