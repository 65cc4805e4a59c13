package reservation

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "reservation not found")
	ErrNoResources         = apperror.New(http.StatusNotFound, "no resources found for the specified venue and activity")
	ErrResourceNotFound    = apperror.New(http.StatusNotFound, "resource not found for the specified venue and activity")
	ErrResourceUnavailable = apperror.New(http.StatusConflict, "resource unavailable for requested window")
	ErrNoFreeResource      = apperror.New(http.StatusConflict, "no resources available for the selected time slot")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvariantViolation  = apperror.New(http.StatusInternalServerError, "allocation invariant violated")
)

// DateLayout is the calendar-day format accepted and produced by the API.
const DateLayout = "2006-01-02"

// Status is the lifecycle category of a reservation.
type Status string

const (
	StatusBooking        Status = "Booking"
	StatusCheckedIn      Status = "CheckedIn"
	StatusCoaching       Status = "Coaching"
	StatusBlocked        Status = "Blocked"
	StatusCompleted      Status = "Completed"
	StatusPendingPayment Status = "PendingPayment"
)

// AllStatuses lists the closed status enumeration in display order.
var AllStatuses = []Status{
	StatusBooking,
	StatusCheckedIn,
	StatusCoaching,
	StatusBlocked,
	StatusCompleted,
	StatusPendingPayment,
}

// Valid reports whether s belongs to the enumeration.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusSet is a set of statuses, e.g. those that consume resource capacity.
type StatusSet map[Status]struct{}

// NewStatusSet builds a set from the given statuses.
func NewStatusSet(statuses ...Status) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// Has reports whether s is in the set.
func (set StatusSet) Has(s Status) bool {
	_, ok := set[s]
	return ok
}

// Complement returns the statuses of the enumeration that are not in the set,
// in enumeration order.
func (set StatusSet) Complement() []Status {
	var out []Status
	for _, s := range AllStatuses {
		if !set.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Reservation is a confirmed claim on one resource for [StartHour, EndHour) of Date.
// The *Name fields are display projections filled in by the store on reads.
type Reservation struct {
	ID           string
	ResourceID   string
	ResourceName string
	VenueID      string
	VenueName    string
	ActivityID   string
	ActivityName string
	UserID       *string
	UserName     *string
	Date         time.Time // midnight UTC of the calendar day
	StartHour    int
	EndHour      int
	Status       Status
	Remarks      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SlotAvailability is the capacity of one grid slot.
type SlotAvailability struct {
	Start     int
	End       int
	Label     string
	Total     int
	Booked    int
	Free      int
	Available bool
}

// Filter defines parameters for listing reservations.
type Filter struct {
	VenueID    string
	ActivityID string
	ResourceID string
	UserID     string
	Date       *time.Time
	Page       int
	PageSize   int
}
