package reservation

import (
	"github.com/nekogravitycat/court-reservation-backend/internal/slot"
)

// CalculateAvailability computes, for every slot of the window, how many resources
// of the pool are free. A resource counts as booked in a slot when at least one of
// its reservations overlaps the slot and has an occupying status; a nil occupying
// set means every status occupies.
// Reservations on resources outside the pool are ignored.
func CalculateAvailability(window slot.Window, pool []string, reservations []*Reservation, occupying StatusSet) []SlotAvailability {
	inPool := make(map[string]struct{}, len(pool))
	for _, id := range pool {
		inPool[id] = struct{}{}
	}
	total := len(inPool)

	slots := window.Slots()
	result := make([]SlotAvailability, len(slots))
	for i, s := range slots {
		booked := make(map[string]struct{})
		for _, r := range reservations {
			if _, ok := inPool[r.ResourceID]; !ok {
				continue
			}
			if occupying != nil && !occupying.Has(r.Status) {
				continue
			}
			if slot.Overlaps(s.Start, s.End, r.StartHour, r.EndHour) {
				booked[r.ResourceID] = struct{}{}
			}
		}

		free := total - len(booked)
		result[i] = SlotAvailability{
			Start:     s.Start,
			End:       s.End,
			Label:     s.Label,
			Total:     total,
			Booked:    len(booked),
			Free:      free,
			Available: free > 0,
		}
	}
	return result
}

// OnlyAvailable drops the slots without a free resource.
func OnlyAvailable(slots []SlotAvailability) []SlotAvailability {
	out := make([]SlotAvailability, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// freeSet returns the pool members with no overlapping reservation, keeping pool order.
func freeSet(pool []string, overlapping []*Reservation) []string {
	taken := make(map[string]struct{}, len(overlapping))
	for _, r := range overlapping {
		taken[r.ResourceID] = struct{}{}
	}
	free := make([]string, 0, len(pool))
	for _, id := range pool {
		if _, ok := taken[id]; !ok {
			free = append(free, id)
		}
	}
	return free
}
