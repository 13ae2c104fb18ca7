// SPDX-License-Identifier: EPL-2.0

package formats

import "errors"

// ErrUnrecognized is returned when neither a format hint nor the content
// identifies a supported container.
var ErrUnrecognized = errors.New("unrecognized audio container")
