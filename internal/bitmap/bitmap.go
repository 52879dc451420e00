// Package bitmap models one seat's day as a flat boolean array over slots.
// A reservation subtract is a range clear and listing open windows is a single
// linear scan, which is enough because a day is at most 96 slots on a
// 15-minute grid.
package bitmap

// BuildInitial returns a bitmap of total slots with [openStart, min(openEnd,
// total)) set true. Indices are slot indices, not clock times.
func BuildInitial(openStart, openEnd, total int) []bool {
	bm := make([]bool, total)
	MarkOpen(bm, openStart, openEnd)
	return bm
}

// MarkOpen sets [start, end) true, clamped to the bitmap bounds. Used to
// union multiple open spans for the same seat.
func MarkOpen(bm []bool, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(bm) {
		end = len(bm)
	}
	for i := start; i < end; i++ {
		bm[i] = true
	}
}

// ApplyReservation clears [startSlot-buffer, endSlot+buffer) clamped to the
// bitmap bounds. Reapplying the same window is a no-op.
func ApplyReservation(bm []bool, startSlot, endSlot, bufferSlots int) {
	start := startSlot - bufferSlots
	if start < 0 {
		start = 0
	}
	end := endSlot + bufferSlots
	if end > len(bm) {
		end = len(bm)
	}
	for i := start; i < end; i++ {
		bm[i] = false
	}
}

// Span is a half-open [Start, End) run of bookable slots.
type Span struct {
	Start int
	End   int
}

// ToSpans compresses the bitmap into maximal true runs in ascending order.
// A fully false bitmap yields nil.
func ToSpans(bm []bool) []Span {
	var spans []Span
	start := -1
	for i, open := range bm {
		switch {
		case open && start < 0:
			start = i
		case !open && start >= 0:
			spans = append(spans, Span{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(bm)})
	}
	return spans
}
