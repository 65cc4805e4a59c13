package http

import (
	"cmp"
	"time"

	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/request"
	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
)

// statusAliases maps the labels used by older clients onto the canonical statuses.
var statusAliases = map[string]reservation.Status{
	"Reservation":          reservation.StatusBooking,
	"Checked-in":           reservation.StatusCheckedIn,
	"Checked":              reservation.StatusCheckedIn,
	"Blocked / Tournament": reservation.StatusBlocked,
	"Payment Pending":      reservation.StatusPendingPayment,
}

// canonicalStatus resolves an alias. Unknown values pass through so validation can reject them.
func canonicalStatus(s string) string {
	if st, ok := statusAliases[s]; ok {
		return string(st)
	}
	return s
}

// CreateReservationBody is the payload for POST /v1/reservations.
// Field checks run in the domain validator so errors come back in a fixed order.
type CreateReservationBody struct {
	VenueID    string `json:"venue_id"`
	ActivityID string `json:"activity_id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	Remarks    string `json:"remarks"`

	// Older clients send equipment_id and category. The canonical key wins when both are set.
	EquipmentID string `json:"equipment_id,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (b CreateReservationBody) toInput(userID *string) reservation.CreateInput {
	return reservation.CreateInput{
		VenueID:    b.VenueID,
		ActivityID: b.ActivityID,
		ResourceID: cmp.Or(b.ResourceID, b.EquipmentID),
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     canonicalStatus(cmp.Or(b.Status, b.Category)),
		Remarks:    b.Remarks,
		UserID:     userID,
	}
}

// AvailabilityQuery defines query parameters for GET /v1/availability.
type AvailabilityQuery struct {
	VenueID       string `form:"venue_id"`
	ActivityID    string `form:"activity_id"`
	Date          string `form:"date"`
	OnlyAvailable bool   `form:"only_available"`
}

// ListReservationsQuery defines query parameters for listing reservations.
type ListReservationsQuery struct {
	request.ListParams
	VenueID    string `form:"venue_id" binding:"omitempty,uuid"`
	ActivityID string `form:"activity_id" binding:"omitempty,uuid"`
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	Date       string `form:"date"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReservationResponse struct {
	ID        string    `json:"id"`
	Resource  Tag       `json:"resource"`
	User      *Tag      `json:"user"`
	Venue     Tag       `json:"venue"`
	Activity  Tag       `json:"activity"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"`
	Remarks   string    `json:"remarks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewReservationResponse(b *reservation.Reservation) ReservationResponse {
	var user *Tag
	if b.UserID != nil {
		user = &Tag{ID: *b.UserID}
		if b.UserName != nil {
			user.Name = *b.UserName
		}
	}
	return ReservationResponse{
		ID:        b.ID,
		Resource:  Tag{ID: b.ResourceID, Name: b.ResourceName},
		User:      user,
		Venue:     Tag{ID: b.VenueID, Name: b.VenueName},
		Activity:  Tag{ID: b.ActivityID, Name: b.ActivityName},
		Date:      b.Date.Format(reservation.DateLayout),
		StartTime: reservation.FormatHour(b.StartHour),
		EndTime:   reservation.FormatHour(b.EndHour),
		Status:    string(b.Status),
		Remarks:   b.Remarks,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type SlotResponse struct {
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Label              string `json:"label"`
	TotalResources     int    `json:"total_resources"`
	BookedResources    int    `json:"booked_resources"`
	AvailableResources int    `json:"available_resources"`
	Available          bool   `json:"available"`
}

func NewSlotResponses(slots []reservation.SlotAvailability) []SlotResponse {
	out := make([]SlotResponse, len(slots))
	for i, s := range slots {
		out[i] = SlotResponse{
			StartTime:          reservation.FormatHour(s.Start),
			EndTime:            reservation.FormatHour(s.End),
			Label:              s.Label,
			TotalResources:     s.Total,
			BookedResources:    s.Booked,
			AvailableResources: s.Free,
			Available:          s.Available,
		}
	}
	return out
}
