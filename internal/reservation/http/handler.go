package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-reservation-backend/internal/auth"
	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/request"
	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/response"
	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

// Create allocates a resource and records the reservation.
// Anonymous callers are allowed; the actor is taken from the bearer token when present.
func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.Validation("invalid request body"))
		return
	}

	b, err := h.service.Create(c.Request.Context(), body.toInput(auth.ActorID(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReservationResponse(b))
}

// Availability returns per-slot capacity for one (venue, activity, date).
// With only_available=true the fully booked slots are omitted.
func (h *Handler) Availability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation("invalid query parameters"))
		return
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), reservation.AvailabilityInput{
		VenueID:       q.VenueID,
		ActivityID:    q.ActivityID,
		Date:          q.Date,
		OnlyAvailable: q.OnlyAvailable,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotResponses(slots))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, apperror.Validation("invalid UUID", "id"))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(b))
}

// List is the operations view of reservations, usually scoped to one venue and day.
func (h *Handler) List(c *gin.Context) {
	var q ListReservationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation("invalid query parameters"))
		return
	}
	q.Normalize()

	filter := reservation.Filter{
		VenueID:    q.VenueID,
		ActivityID: q.ActivityID,
		ResourceID: q.ResourceID,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
	if q.Date != "" {
		date, err := reservation.ParseDate(q.Date)
		if err != nil {
			response.Error(c, apperror.Validation("invalid date format, use YYYY-MM-DD", "date"))
			return
		}
		filter.Date = &date
	}

	h.respondList(c, filter)
}

// Mine lists the authenticated user's own reservations.
func (h *Handler) Mine(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.Validation("invalid query parameters"))
		return
	}
	params.Normalize()

	h.respondList(c, reservation.Filter{
		UserID:   auth.GetUserID(c),
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

func (h *Handler) respondList(c *gin.Context, filter reservation.Filter) {
	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]ReservationResponse, len(items))
	for i, b := range items {
		out[i] = NewReservationResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(out, filter.Page, filter.PageSize, total))
}

// Cancel deletes a reservation. Only the user who made it may cancel it.
func (h *Handler) Cancel(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, apperror.Validation("invalid UUID", "id"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), req.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
