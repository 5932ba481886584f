package adapter

import (
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
)

// Easing selects the interpolation curve of a Tween.
type Easing uint8

// Easing curves.
const (
	EasingLinear Easing = iota
	EasingSmoothStep
	EasingEaseInOutCubic
)

// Easing curve constants.
const (
	halfway     = 0.5
	cubicScale  = 4.0
	smoothSlope = 3.0
)

var easingNames = map[Easing]string{
	EasingLinear:         "linear",
	EasingSmoothStep:     "smoothstep",
	EasingEaseInOutCubic: "ease-in-out-cubic",
}

// String returns the easing name.
func (e Easing) String() string {
	if name, ok := easingNames[e]; ok {
		return name
	}

	return fmt.Sprintf("easing(%d)", uint8(e))
}

// ParseEasing converts a name produced by String back to an Easing.
func ParseEasing(s string) (Easing, error) {
	for e, name := range easingNames {
		if name == s {
			return e, nil
		}
	}

	return EasingLinear, fmt.Errorf("%w: %q", ErrUnknownEasing, s)
}

// Sample maps progress t in [0,1] through the curve.
func (e Easing) Sample(t float64) float64 {
	switch e {
	case EasingSmoothStep:
		return t * t * (smoothSlope - 2*t)
	case EasingEaseInOutCubic:
		if t < halfway {
			return cubicScale * t * t * t
		}

		u := -2*t + 2

		return 1 - u*u*u/2
	default:
		return t
	}
}

// Tween interpolates a scroll offset over a caller-driven clock.
type Tween struct {
	From       uint64 `json:"from"`
	To         uint64 `json:"to"`
	StartMS    uint64 `json:"start_ms"`
	DurationMS uint64 `json:"duration_ms"`
	Easing     Easing `json:"easing"`
}

// NewTween creates a tween. Durations below 1ms are raised to 1ms.
func NewTween(from, to, startMS, durationMS uint64, easing Easing) Tween {
	return Tween{From: from, To: to, StartMS: startMS, DurationMS: max(durationMS, 1), Easing: easing}
}

// Done reports whether the tween has reached its end at nowMS.
func (tw Tween) Done(nowMS uint64) bool {
	return safeconv.SubU64(nowMS, tw.StartMS) >= tw.DurationMS
}

// Sample returns the interpolated offset at nowMS.
func (tw Tween) Sample(nowMS uint64) uint64 {
	elapsed := safeconv.SubU64(nowMS, tw.StartMS)
	if elapsed >= tw.DurationMS {
		return tw.To
	}

	t := min(max(float64(elapsed)/float64(tw.DurationMS), 0), 1)
	eased := tw.Easing.Sample(t)

	from, to := float64(tw.From), float64(tw.To)
	v := math.Round(from + (to-from)*eased)

	if v <= 0 {
		return 0
	}

	if v >= math.MaxUint64 {
		return math.MaxUint64
	}

	return uint64(v)
}

// Retarget restarts the tween at nowMS from its current sample toward to.
func (tw *Tween) Retarget(nowMS, to, durationMS uint64) {
	*tw = NewTween(tw.Sample(nowMS), to, nowMS, durationMS, tw.Easing)
}
