package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "resource not found")
)

// Resource represents a bookable unit (e.g., Court A, Table 3).
// It belongs to exactly one venue and one activity.
type Resource struct {
	ID           string
	VenueID      string
	ActivityID   string
	Name         string
	VenueName    string
	ActivityName string
	CreatedAt    time.Time
}

// IDs returns the identifiers of the given resources in order.
func IDs(resources []*Resource) []string {
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	return ids
}
