package slot

// Overlaps reports whether the half-open ranges [aStart, aEnd) and [bStart, bEnd)
// share at least one hour. Touching ranges such as [9,10) and [10,11) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
