// Package safeconv provides saturating arithmetic and clamped conversions
// for the unsigned offsets and sizes used by the list engine. None of the
// helpers wrap or panic: results stick to the bounds of the target type.
package safeconv

import "math"

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// AddU64 returns a+b, saturating at math.MaxUint64.
func AddU64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}

	return sum
}

// SubU64 returns a-b, saturating at zero.
func SubU64(a, b uint64) uint64 {
	if b >= a {
		return 0
	}

	return a - b
}

// AddSigned applies a signed delta to an unsigned base, saturating at both ends.
func AddSigned(base uint64, delta int64) uint64 {
	if delta >= 0 {
		return AddU64(base, uint64(delta))
	}

	return SubU64(base, magnitude(delta))
}

// Delta returns to-from as a signed value, saturating at the int64 bounds.
func Delta(from, to uint64) int64 {
	if to >= from {
		d := to - from
		if d > math.MaxInt64 {
			return math.MaxInt64
		}

		return int64(d)
	}

	d := from - to
	if d > math.MaxInt64 {
		return math.MinInt64
	}

	return -int64(d)
}

// AddInt64 returns a+b, saturating at the int64 bounds.
func AddInt64(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	default:
		return a + b
	}
}

// IntToU64 converts an int to uint64, mapping negative values to zero.
func IntToU64(v int) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}

// U64ToInt converts a uint64 to int, clamping at MaxInt.
func U64ToInt(v uint64) int {
	if v > uint64(MaxInt) {
		return MaxInt
	}

	return int(v)
}

// U64ToU32 converts a uint64 to uint32, clamping at MaxUint32.
func U64ToU32(v uint64) uint32 {
	if v > uint64(MaxUint32) {
		return MaxUint32
	}

	return uint32(v)
}

// U64ToI64 converts a uint64 to int64, clamping at math.MaxInt64.
func U64ToI64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}

// magnitude returns |v| as uint64 without overflowing on math.MinInt64.
func magnitude(v int64) uint64 {
	if v >= 0 {
		return uint64(v)
	}

	return uint64(-(v + 1)) + 1
}
