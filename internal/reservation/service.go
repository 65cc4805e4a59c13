package reservation

import (
	"context"
	"errors"
	"log"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nekogravitycat/court-reservation-backend/internal/db"
	"github.com/nekogravitycat/court-reservation-backend/internal/resource"
	"github.com/nekogravitycat/court-reservation-backend/internal/slot"
)

var tracer = otel.Tracer("github.com/nekogravitycat/court-reservation-backend/internal/reservation")

// ResourceFinder resolves resources and resource pools.
type ResourceFinder interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
	Pool(ctx context.Context, venueID, activityID string) ([]*resource.Resource, error)
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Reservation, error)
	AvailableSlots(ctx context.Context, in AvailabilityInput) ([]SlotAvailability, error)
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	Cancel(ctx context.Context, id string, actorID string) error
	CompleteElapsed(ctx context.Context) (int64, error)
}

// Options configures the allocation service.
type Options struct {
	Window slot.Window
	// Occupying lists the statuses that consume capacity in availability queries.
	// Nil means every status does. Allocation always treats every status as occupying.
	Occupying StatusSet
	Selector  Selector
	// StoreTimeout bounds every individual store call; zero disables the bound.
	StoreTimeout time.Duration
	// Location decides the current day and hour for the completion sweep.
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	repo      Repository
	resources ResourceFinder
	validator *Validator
	occupying StatusSet
	selector  Selector
	timeout   time.Duration
	loc       *time.Location
	now       func() time.Time
}

func NewService(repo Repository, resources ResourceFinder, opts Options) Service {
	s := &service{
		repo:      repo,
		resources: resources,
		validator: NewValidator(opts.Window),
		occupying: opts.Occupying,
		selector:  opts.Selector,
		timeout:   opts.StoreTimeout,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if s.selector == nil {
		s.selector = NewRandomSelector()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// bounded derives the context for a single store call.
func (s *service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Reservation, error) {
	req, err := s.validator.ValidateCreate(in)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reservation.Create", trace.WithAttributes(
		attribute.String("venue.id", req.VenueID),
		attribute.String("activity.id", req.ActivityID),
		attribute.String("reservation.date", req.Date.Format(DateLayout)),
		attribute.Int("reservation.start_hour", req.StartHour),
		attribute.Int("reservation.end_hour", req.EndHour),
		attribute.Bool("reservation.explicit_resource", req.ResourceID != ""),
	))
	defer span.End()

	b := &Reservation{
		VenueID:    req.VenueID,
		ActivityID: req.ActivityID,
		UserID:     req.UserID,
		Date:       req.Date,
		StartHour:  req.StartHour,
		EndHour:    req.EndHour,
		Status:     req.Status,
		Remarks:    req.Remarks,
	}

	if req.ResourceID != "" {
		err = s.reserveExplicit(ctx, b, req.ResourceID)
	} else {
		err = s.reserveAny(ctx, b)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("resource.id", b.ResourceID),
		attribute.String("reservation.id", b.ID),
	)

	// The row is committed at this point; a failed re-read must not look like a failed booking.
	stored, err := s.GetByID(ctx, b.ID)
	if err != nil {
		log.Printf("reservation %s created but re-read failed: %v", b.ID, err)
		return b, nil
	}
	return stored, nil
}

// reserveExplicit books the caller's chosen resource or fails; it never falls back
// to another resource.
func (s *service) reserveExplicit(ctx context.Context, b *Reservation, resourceID string) error {
	res, err := s.lookupResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if res.VenueID != b.VenueID || res.ActivityID != b.ActivityID {
		return ErrResourceNotFound
	}

	overlapping, err := s.findOverlapping(ctx, OverlapQuery{
		ResourceIDs: []string{res.ID},
		Date:        b.Date,
		StartHour:   b.StartHour,
		EndHour:     b.EndHour,
	})
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return ErrResourceUnavailable
	}

	assign(b, res)
	return s.insert(ctx, b)
}

// reserveAny selects a free resource from the pool. When a concurrent writer takes
// the chosen resource first, that resource leaves the free set and selection runs again.
func (s *service) reserveAny(ctx context.Context, b *Reservation) error {
	pool, err := s.pool(ctx, b.VenueID, b.ActivityID)
	if err != nil {
		return err
	}
	byID := make(map[string]*resource.Resource, len(pool))
	for _, r := range pool {
		byID[r.ID] = r
	}
	ids := resource.IDs(pool)

	overlapping, err := s.findOverlapping(ctx, OverlapQuery{
		ResourceIDs: ids,
		Date:        b.Date,
		StartHour:   b.StartHour,
		EndHour:     b.EndHour,
	})
	if err != nil {
		return err
	}

	free := freeSet(ids, overlapping)
	for len(free) > 0 {
		id := s.selector.Pick(free)
		if !slices.Contains(free, id) {
			log.Printf("invariant violation: selector picked resource %q outside free set %v (venue %s, activity %s, %s %d-%d)",
				id, free, b.VenueID, b.ActivityID, b.Date.Format(DateLayout), b.StartHour, b.EndHour)
			return ErrInvariantViolation
		}

		assign(b, byID[id])
		err := s.insert(ctx, b)
		if errors.Is(err, ErrResourceUnavailable) {
			free = slices.DeleteFunc(slices.Clone(free), func(v string) bool { return v == id })
			continue
		}
		return err
	}
	return ErrNoFreeResource
}

func assign(b *Reservation, res *resource.Resource) {
	b.ResourceID = res.ID
	b.ResourceName = res.Name
	b.VenueName = res.VenueName
	b.ActivityName = res.ActivityName
}

func (s *service) lookupResource(ctx context.Context, id string) (*resource.Resource, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, db.Classify(err)
	}
	return res, nil
}

func (s *service) pool(ctx context.Context, venueID, activityID string) ([]*resource.Resource, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	pool, err := s.resources.Pool(ctx, venueID, activityID)
	if err != nil {
		return nil, db.Classify(err)
	}
	if len(pool) == 0 {
		return nil, ErrNoResources
	}
	return pool, nil
}

func (s *service) findOverlapping(ctx context.Context, q OverlapQuery) ([]*Reservation, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	found, err := s.repo.FindOverlapping(ctx, q)
	return found, db.Classify(err)
}

func (s *service) insert(ctx context.Context, b *Reservation) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	return db.Classify(s.repo.InsertIfFree(ctx, b))
}

func (s *service) AvailableSlots(ctx context.Context, in AvailabilityInput) ([]SlotAvailability, error) {
	q, err := s.validator.ValidateAvailability(in)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reservation.AvailableSlots", trace.WithAttributes(
		attribute.String("venue.id", q.VenueID),
		attribute.String("activity.id", q.ActivityID),
		attribute.String("reservation.date", q.Date.Format(DateLayout)),
	))
	defer span.End()

	pool, err := s.pool(ctx, q.VenueID, q.ActivityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	ids := resource.IDs(pool)

	window := s.validator.Window()
	var excluded []Status
	if s.occupying != nil {
		excluded = s.occupying.Complement()
	}
	reservations, err := s.findOverlapping(ctx, OverlapQuery{
		ResourceIDs:      ids,
		Date:             q.Date,
		StartHour:        window.Start,
		EndHour:          window.End,
		ExcludedStatuses: excluded,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slots := CalculateAvailability(window, ids, reservations, s.occupying)
	if q.OnlyAvailable {
		slots = OnlyAvailable(slots)
	}
	return slots, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Reservation, error) {
	id, ok := CanonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	b, err := s.repo.GetByID(ctx, id)
	return b, db.Classify(err)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	for _, id := range []*string{&filter.VenueID, &filter.ActivityID, &filter.ResourceID, &filter.UserID} {
		if canonical, ok := CanonicalID(*id); ok {
			*id = canonical
		}
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	items, total, err := s.repo.List(ctx, filter)
	return items, total, db.Classify(err)
}

// Cancel deletes a reservation on behalf of the actor who made it.
func (s *service) Cancel(ctx context.Context, id string, actorID string) error {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.UserID == nil || *b.UserID != actorID {
		return ErrPermissionDenied
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	return db.Classify(s.repo.Delete(ctx, id))
}

// CompleteElapsed marks reservations whose end hour has passed as Completed.
func (s *service) CompleteElapsed(ctx context.Context) (int64, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	n, err := s.repo.CompleteElapsed(ctx, today, now.Hour())
	return n, db.Classify(err)
}
