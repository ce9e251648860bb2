package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/gym-booking/internal/domain"
)

// MemoryBookingRepository implements BookingRepository in memory with the
// same locking discipline as PostgreSQL: a mutex per schedule, then a mutex
// per user for credit consumption.
// This is useful for testing and development
type MemoryBookingRepository struct {
	mu           sync.RWMutex
	schedules    map[string]*domain.ScheduleWithClass
	bookings     map[string]*domain.Booking
	userPackages map[string][]*domain.UserPackage // userID -> packages
	events       []*domain.BookingEvent

	scheduleLocks sync.Map // scheduleID -> *sync.Mutex
	userLocks     sync.Map // userID -> *sync.Mutex

	// InsertErr, when set, makes every insert fail with it
	InsertErr error
}

// NewMemoryBookingRepository creates a new in-memory booking repository
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		schedules:    make(map[string]*domain.ScheduleWithClass),
		bookings:     make(map[string]*domain.Booking),
		userPackages: make(map[string][]*domain.UserPackage),
	}
}

// AddSchedule registers a schedule with its class
func (r *MemoryBookingRepository) AddSchedule(s *domain.ScheduleWithClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.schedules[s.ID] = &c
}

// AddUserPackage registers a package owned by a user
func (r *MemoryBookingRepository) AddUserPackage(up *domain.UserPackage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userPackages[up.UserID] = append(r.userPackages[up.UserID], up)
}

// GetWithClass returns the schedule with its current seat count
func (r *MemoryBookingRepository) GetWithClass(ctx context.Context, id string) (*domain.ScheduleWithClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	c := *s
	c.BookedSpots = r.countLocked(id)
	return &c, nil
}

// Events returns the booking events recorded so far
func (r *MemoryBookingRepository) Events() []*domain.BookingEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events)
}

func lockFor(m *sync.Map, key string) *sync.Mutex {
	v, _ := m.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Admit decides and applies one booking attempt
func (r *MemoryBookingRepository) Admit(ctx context.Context, req domain.AdmissionRequest) (*domain.AdmissionResult, error) {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}

	r.mu.RLock()
	sched, ok := r.schedules[req.ScheduleID]
	r.mu.RUnlock()
	if !ok {
		return &domain.AdmissionResult{Outcome: domain.OutcomeScheduleNotFound}, nil
	}

	scheduleLock := lockFor(&r.scheduleLocks, req.ScheduleID)
	scheduleLock.Lock()
	defer scheduleLock.Unlock()

	r.mu.RLock()
	snap := domain.AdmissionSnapshot{
		ScheduleFound: true,
		AlreadyBooked: r.existsLocked(req.UserID, req.ScheduleID),
		BookedCount:   r.countLocked(req.ScheduleID),
		Capacity:      sched.Class.Capacity,
		ClassType:     sched.Class.Type,
	}
	r.mu.RUnlock()

	if outcome := domain.DecideAdmission(snap); outcome != domain.OutcomeSuccess {
		return &domain.AdmissionResult{Outcome: outcome}, nil
	}

	bookingDate := sched.BookingDate(loc)

	if req.EnforceCredits {
		userLock := lockFor(&r.userLocks, req.UserID)
		userLock.Lock()
		defer userLock.Unlock()

		monthStart, monthEnd := domain.MonthWindow(bookingDate, loc)
		r.mu.RLock()
		snap.EnforceCredits = true
		snap.Month = monthStart.Format(domain.MonthKeyLayout)
		snap.Package = r.packageForMonthLocked(req.UserID, monthStart, monthEnd)
		snap.BookedTypes = r.bookedTypesLocked(req.UserID, monthStart, monthEnd)
		r.mu.RUnlock()

		if outcome := domain.DecideAdmission(snap); outcome != domain.OutcomeSuccess {
			return &domain.AdmissionResult{Outcome: outcome}, nil
		}
	}

	if r.InsertErr != nil {
		return &domain.AdmissionResult{Outcome: domain.OutcomeInsertFailed},
			fmt.Errorf("%w: %v", domain.ErrInsertFailed, r.InsertErr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsLocked(req.UserID, req.ScheduleID) {
		return &domain.AdmissionResult{Outcome: domain.OutcomeAlreadyBooked}, nil
	}

	id := req.BookingID
	if id == "" {
		id = uuid.NewString()
	}
	booking := &domain.Booking{
		ID:          id,
		UserID:      req.UserID,
		ScheduleID:  req.ScheduleID,
		BookingDate: bookingDate,
		CreatedAt:   time.Now(),
	}
	r.bookings[id] = booking
	r.events = append(r.events, domain.NewBookingEvent(domain.BookingEventCreated, booking, sched))

	b := *booking
	return &domain.AdmissionResult{Outcome: domain.OutcomeSuccess, Booking: &b}, nil
}

// Cancel deletes bookingID only if userID owns it
func (r *MemoryBookingRepository) Cancel(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[bookingID]
	if !ok {
		return nil, domain.NewCancelError(domain.ErrBookingNotFound)
	}
	if booking.UserID != userID {
		return nil, domain.NewCancelError(domain.ErrNotBookingOwner)
	}

	delete(r.bookings, bookingID)
	r.events = append(r.events, domain.NewBookingEvent(domain.BookingEventCancelled, booking, r.schedules[booking.ScheduleID]))
	return booking, nil
}

// ListByUser lists a user's bookings for schedules starting at or after from
func (r *MemoryBookingRepository) ListByUser(ctx context.Context, userID string, from time.Time) ([]*domain.BookingDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*domain.BookingDetail{}
	for _, b := range r.bookings {
		s := r.schedules[b.ScheduleID]
		if b.UserID != userID || s == nil || s.StartTime.Before(from) {
			continue
		}
		result = append(result, &domain.BookingDetail{
			Booking:   *b,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Class:     s.Class,
		})
	}
	slices.SortFunc(result, func(a, b *domain.BookingDetail) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return result, nil
}

// ListBookedClassTypes returns the class types booked by the user in [from, to]
func (r *MemoryBookingRepository) ListBookedClassTypes(ctx context.Context, userID string, from, to time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bookedTypesLocked(userID, from, to), nil
}

// CountBySchedule counts the bookings of a schedule
func (r *MemoryBookingRepository) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked(scheduleID), nil
}

func (r *MemoryBookingRepository) existsLocked(userID, scheduleID string) bool {
	for _, b := range r.bookings {
		if b.UserID == userID && b.ScheduleID == scheduleID {
			return true
		}
	}
	return false
}

func (r *MemoryBookingRepository) countLocked(scheduleID string) int {
	n := 0
	for _, b := range r.bookings {
		if b.ScheduleID == scheduleID {
			n++
		}
	}
	return n
}

func (r *MemoryBookingRepository) packageForMonthLocked(userID string, monthStart, monthEnd time.Time) *domain.UserPackage {
	from, until := monthStart.Format(time.DateOnly), monthEnd.Format(time.DateOnly)
	for _, up := range r.userPackages[userID] {
		if up.ValidFrom.Format(time.DateOnly) == from && up.ValidUntil.Format(time.DateOnly) == until {
			return up
		}
	}
	return nil
}

func (r *MemoryBookingRepository) bookedTypesLocked(userID string, from, to time.Time) []string {
	fromDay, toDay := from.Format(time.DateOnly), to.Format(time.DateOnly)

	var matched []*domain.Booking
	for _, b := range r.bookings {
		day := b.BookingDate.Format(time.DateOnly)
		if b.UserID == userID && day >= fromDay && day <= toDay {
			matched = append(matched, b)
		}
	}
	slices.SortFunc(matched, func(a, b *domain.Booking) int {
		if c := a.BookingDate.Compare(b.BookingDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	types := make([]string, 0, len(matched))
	for _, b := range matched {
		if s := r.schedules[b.ScheduleID]; s != nil {
			types = append(types, s.Class.Type)
		}
	}
	return types
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
