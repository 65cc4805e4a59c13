package reservation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-reservation-backend/internal/slot"
)

const (
	// MinDurationHours is the shortest reservation accepted.
	MinDurationHours = 1
	// MaxRemarksLength caps the free-text remarks.
	MaxRemarksLength = 500
)

// CreateInput is an unvalidated reservation request as received from a caller.
// Times use the "HH:00" format and Date uses DateLayout.
type CreateInput struct {
	VenueID    string
	ActivityID string
	ResourceID string // empty means "any free resource"
	Date       string
	StartTime  string
	EndTime    string
	Status     string
	Remarks    string
	UserID     *string // nil for anonymous callers
}

// CreateRequest is a validated reservation request.
type CreateRequest struct {
	VenueID    string
	ActivityID string
	ResourceID string
	Date       time.Time
	StartHour  int
	EndHour    int
	Status     Status
	Remarks    string
	UserID     *string
}

// AvailabilityInput is an unvalidated availability query.
type AvailabilityInput struct {
	VenueID       string
	ActivityID    string
	Date          string
	OnlyAvailable bool
}

// AvailabilityQuery is a validated availability query.
type AvailabilityQuery struct {
	VenueID       string
	ActivityID    string
	Date          time.Time
	OnlyAvailable bool
}

// Validator checks requests against the configured operating window.
// Rules run in a fixed order and the first failing rule is returned.
type Validator struct {
	window slot.Window
}

func NewValidator(window slot.Window) *Validator {
	return &Validator{window: window}
}

// Window returns the operating window the validator enforces.
func (v *Validator) Window() slot.Window {
	return v.window
}

func (v *Validator) ValidateCreate(in CreateInput) (CreateRequest, error) {
	// 1. Required fields
	if err := requireFields(
		field{"venue_id", in.VenueID},
		field{"activity_id", in.ActivityID},
		field{"date", in.Date},
		field{"start_time", in.StartTime},
		field{"end_time", in.EndTime},
		field{"status", in.Status},
	); err != nil {
		return CreateRequest{}, err
	}

	// 2. Identifier well-formedness
	venue := field{"venue_id", in.VenueID}
	activity := field{"activity_id", in.ActivityID}
	res := field{"resource_id", in.ResourceID}
	ids := []*field{&venue, &activity}
	if in.ResourceID != "" {
		ids = append(ids, &res)
	}
	if err := requireUUIDs(ids...); err != nil {
		return CreateRequest{}, err
	}

	// 3. Date format
	date, err := ParseDate(in.Date)
	if err != nil {
		return CreateRequest{}, apperror.Validation("invalid date format, use YYYY-MM-DD", "date")
	}

	// 4. Time format (whole hours only)
	start, startErr := ParseHour(in.StartTime)
	end, endErr := ParseHour(in.EndTime)
	var badTimes []string
	if startErr != nil {
		badTimes = append(badTimes, "start_time")
	}
	if endErr != nil {
		badTimes = append(badTimes, "end_time")
	}
	if len(badTimes) > 0 {
		return CreateRequest{}, apperror.Validation("invalid time format, must be HH:00", badTimes...)
	}

	// 5. Business hours
	if !v.window.Contains(start, end) {
		return CreateRequest{}, apperror.Validation(
			fmt.Sprintf("times must be between %s and %s",
				FormatHour(v.window.Start), FormatHour(v.window.End)),
			"start_time", "end_time",
		)
	}

	// 6. Minimum duration
	if end-start < MinDurationHours {
		return CreateRequest{}, apperror.Validation(
			fmt.Sprintf("end_time must be at least %d hour after start_time", MinDurationHours),
			"start_time", "end_time",
		)
	}

	// 7. Status enumeration
	status := Status(in.Status)
	if !status.Valid() {
		return CreateRequest{}, apperror.Validation(
			fmt.Sprintf("invalid status, allowed values: %s", joinStatuses(AllStatuses)),
			"status",
		)
	}

	if utf8.RuneCountInString(in.Remarks) > MaxRemarksLength {
		return CreateRequest{}, apperror.Validation(
			fmt.Sprintf("remarks must be at most %d characters", MaxRemarksLength),
			"remarks",
		)
	}

	return CreateRequest{
		VenueID:    venue.value,
		ActivityID: activity.value,
		ResourceID: res.value,
		Date:       date,
		StartHour:  start,
		EndHour:    end,
		Status:     status,
		Remarks:    in.Remarks,
		UserID:     in.UserID,
	}, nil
}

func (v *Validator) ValidateAvailability(in AvailabilityInput) (AvailabilityQuery, error) {
	if err := requireFields(
		field{"venue_id", in.VenueID},
		field{"activity_id", in.ActivityID},
		field{"date", in.Date},
	); err != nil {
		return AvailabilityQuery{}, err
	}
	venue := field{"venue_id", in.VenueID}
	activity := field{"activity_id", in.ActivityID}
	if err := requireUUIDs(&venue, &activity); err != nil {
		return AvailabilityQuery{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return AvailabilityQuery{}, apperror.Validation("invalid date format, use YYYY-MM-DD", "date")
	}
	return AvailabilityQuery{
		VenueID:       venue.value,
		ActivityID:    activity.value,
		Date:          date,
		OnlyAvailable: in.OnlyAvailable,
	}, nil
}

// ParseDate parses a YYYY-MM-DD calendar day to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// ParseHour parses "HH:00" into an hour in [0, 24]. Minutes other than 00 are rejected.
func ParseHour(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' || s[3:] != "00" {
		return 0, fmt.Errorf("time %q must be in HH:00 format", s)
	}
	if !isDigit(s[0]) || !isDigit(s[1]) {
		return 0, fmt.Errorf("time %q has an invalid hour", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h > 24 {
		return 0, fmt.Errorf("time %q has an invalid hour", s)
	}
	return h, nil
}

// CanonicalID normalizes any spelling uuid.Parse accepts, such as upper-case or
// braced ids, to the form stored in the database.
func CanonicalID(s string) (string, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// FormatHour renders an hour as "HH:00".
func FormatHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperror.Validation(strings.Join(missing, ", ")+" required", missing...)
	}
	return nil
}

// requireUUIDs rewrites each value to its canonical lower-case hyphenated form.
func requireUUIDs(fields ...*field) error {
	var invalid []string
	for _, f := range fields {
		id, ok := CanonicalID(f.value)
		if !ok {
			invalid = append(invalid, f.name)
			continue
		}
		f.value = id
	}
	if len(invalid) > 0 {
		return apperror.Validation("invalid "+strings.Join(invalid, ", "), invalid...)
	}
	return nil
}

func joinStatuses(statuses []Status) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
