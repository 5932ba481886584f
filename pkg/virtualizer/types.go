package virtualizer

// ItemKey is the default item identity: the item index widened to uint64.
type ItemKey = uint64

// Align selects where scroll-to-index places the target item.
type Align uint8

// Alignment values.
const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignAuto
)

var alignNames = [...]string{"start", "center", "end", "auto"}

// String returns the lowercase alignment name.
func (a Align) String() string {
	if int(a) < len(alignNames) {
		return alignNames[a]
	}

	return "unknown"
}

// ParseAlign converts a name produced by String back to an Align.
func ParseAlign(s string) (Align, bool) {
	for i, name := range alignNames {
		if name == s {
			return Align(i), true
		}
	}

	return AlignStart, false
}

// Direction is the last observed scroll direction.
type Direction uint8

// Direction values. DirectionNone means no direction has been observed since
// scrolling last stopped.
const (
	DirectionNone Direction = iota
	DirectionForward
	DirectionBackward
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "none"
	}
}

// Rect is the scroll container geometry. Main is the scroll axis; Cross is
// carried opaquely for adapters.
type Rect struct {
	Main  uint32 `json:"main"  yaml:"main"`
	Cross uint32 `json:"cross" yaml:"cross"`
}

// Range is a half-open index range [Start, End).
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// Empty reports whether the range contains no indices.
func (r Range) Empty() bool {
	return r.Start >= r.End
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}

	return r.End - r.Start
}

// Contains reports whether index lies inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// VirtualItem is one item chosen for rendering. Start is absolute and
// includes the scroll margin and leading padding; Size excludes the gap.
type VirtualItem struct {
	Index int    `json:"index"`
	Start uint64 `json:"start"`
	Size  uint32 `json:"size"`
}

// End returns the absolute offset just past the item.
func (it VirtualItem) End() uint64 {
	end := it.Start + uint64(it.Size)
	if end < it.Start {
		return ^uint64(0)
	}

	return end
}

// KeyedItem is a VirtualItem paired with its identity key.
type KeyedItem[K comparable] struct {
	Key K `json:"key"`
	VirtualItem
}

// ExtractorRange is the input handed to a RangeExtractor: the strictly
// visible range plus the configured overscan and item count.
type ExtractorRange struct {
	VisibleStart int
	VisibleEnd   int
	Overscan     int
	Count        int

	// report receives contract violations caught by an IndexEmitter. The
	// engine points it at its own logger and counters.
	report func(msg string, index, prev, count int)
}

// Visible returns the visible part as a Range.
func (r ExtractorRange) Visible() Range {
	return Range{Start: r.VisibleStart, End: r.VisibleEnd}
}

// Overscanned returns the visible range grown by overscan and clamped to [0, Count).
func (r ExtractorRange) Overscanned() Range {
	return expand(r.Visible(), r.Overscan, r.Count)
}
