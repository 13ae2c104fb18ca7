// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a normalized sample to 16-bit PCM.
// Input outside [-1, 1] is clamped; positive values scale by 32767 and
// negative values by 32768 so that both rails are reachable.
func Float32ToInt16(x float32) int16 {
	if x >= 1 {
		return 32767
	}
	if x <= -1 {
		return -32768
	}
	if x >= 0 {
		return int16(x * 32767.0)
	}

	return int16(x * 32768.0)
}

// Int16ToFloat32 is the inverse of Float32ToInt16.
func Int16ToFloat32(v int16) float32 {
	if v >= 0 {
		return float32(v) / 32767.0
	}

	return float32(v) / 32768.0
}

// IntToFloat32 normalizes an integer PCM sample of the given bit depth.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(v) / 2147483648.0
	default:
		return float32(v) / 32768.0
	}
}
