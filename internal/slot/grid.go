// Package slot discretizes a calendar day into hourly slots and answers
// whether two hour ranges intersect.
package slot

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when an operating window is empty or leaves the 0-24 range.
var ErrInvalidWindow = errors.New("operating window must satisfy 0 <= start < end <= 24")

// Slot is one hourly unit of the operating window, [Start, End).
type Slot struct {
	Start int
	End   int
	Label string
}

// Window is the daily operating range [Start, End) in whole hours.
type Window struct {
	Start int
	End   int
}

// NewWindow validates and returns an operating window.
func NewWindow(start, end int) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks the window bounds.
func (w Window) Validate() error {
	if w.Start < 0 || w.End > 24 || w.Start >= w.End {
		return fmt.Errorf("%w: got [%d,%d)", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Contains reports whether both hours fall on the window's boundaries or inside it.
// It does not order start and end.
func (w Window) Contains(start, end int) bool {
	return w.hasHour(start) && w.hasHour(end)
}

func (w Window) hasHour(h int) bool {
	return h >= w.Start && h <= w.End
}

// Len is the number of slots in the window.
func (w Window) Len() int {
	if w.End <= w.Start {
		return 0
	}
	return w.End - w.Start
}

// Slots enumerates one slot per hour boundary within the window.
// A fresh slice is returned on every call.
func (w Window) Slots() []Slot {
	slots := make([]Slot, 0, w.Len())
	for h := w.Start; h < w.End; h++ {
		slots = append(slots, Slot{Start: h, End: h + 1, Label: Label(h, h+1)})
	}
	return slots
}

// Label formats an hour range as "H:00 - H:00".
func Label(start, end int) string {
	return fmt.Sprintf("%d:00 - %d:00", start, end)
}
