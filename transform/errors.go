// SPDX-License-Identifier: EPL-2.0

package transform

import "errors"

var (
	ErrUnknownKind  = errors.New("unknown transformer kind")
	ErrUnknownParam = errors.New("unknown transformer parameter")
	ErrNeedsBrain   = errors.New("transformer needs a brain")
	ErrInvalidDeps  = errors.New("invalid transformer dependencies")
)
