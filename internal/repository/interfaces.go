package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prohmpiriya/gym-booking/internal/domain"
)

// ClassRepository defines the interface for class data access
type ClassRepository interface {
	// Create inserts a class and fills its ID and timestamps
	Create(ctx context.Context, class *domain.ClassDefinition) error
	// GetByID retrieves a class by ID
	GetByID(ctx context.Context, id string) (*domain.ClassDefinition, error)
	// List lists all classes ordered by name
	List(ctx context.Context) ([]*domain.ClassDefinition, error)
	// Update replaces a class
	Update(ctx context.Context, class *domain.ClassDefinition) error
	// Delete deletes a class and, by cascade, its schedules and rules
	Delete(ctx context.Context, id string) error
}

// ScheduleRepository defines the interface for schedule data access
type ScheduleRepository interface {
	// Create inserts a single schedule
	Create(ctx context.Context, schedule *domain.Schedule) error
	// GetWithClass retrieves a schedule joined with its class and seat count
	GetWithClass(ctx context.Context, id string) (*domain.ScheduleWithClass, error)
	// ListWithClass lists schedules starting in [from, to) with seat counts and
	// whether userID booked each one
	ListWithClass(ctx context.Context, userID string, from, to time.Time) ([]*domain.ScheduleWithClass, error)
	// ListSlots returns the (class, start) pairs of schedules starting in [from, to)
	ListSlots(ctx context.Context, from, to time.Time) (map[domain.SlotKey]struct{}, error)
	// InsertBatch inserts schedules, skipping (class, start) pairs that already
	// exist. When buildEvent is non-nil and rows were inserted, its message is
	// written to the outbox in the same transaction.
	InsertBatch(ctx context.Context, schedules []*domain.Schedule, buildEvent OutboxBuilder) (int, error)
	// Delete deletes a schedule and, by cascade, its bookings
	Delete(ctx context.Context, id string) error
}

// OutboxBuilder builds the outbox message for a batch of inserted rows
type OutboxBuilder func(inserted int) (*domain.OutboxMessage, error)

// BookingRepository defines the interface for booking data access
type BookingRepository interface {
	// Admit runs the admission checks and inserts the booking atomically
	Admit(ctx context.Context, req domain.AdmissionRequest) (*domain.AdmissionResult, error)
	// Cancel deletes bookingID only if it belongs to userID
	Cancel(ctx context.Context, bookingID, userID string) (*domain.Booking, error)
	// ListByUser lists a user's bookings for schedules starting at or after from
	ListByUser(ctx context.Context, userID string, from time.Time) ([]*domain.BookingDetail, error)
	// ListBookedClassTypes returns the class type of each booking with
	// booking_date in [from, to], ordered by booking date
	ListBookedClassTypes(ctx context.Context, userID string, from, to time.Time) ([]string, error)
	// CountBySchedule counts the bookings of a schedule
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
}

// PackageRepository defines the interface for package data access
type PackageRepository interface {
	// Create inserts a package with its items
	Create(ctx context.Context, pkg *domain.Package) error
	// GetByID retrieves a package with its items
	GetByID(ctx context.Context, id string) (*domain.Package, error)
	// List lists packages with items, optionally only active ones
	List(ctx context.Context, activeOnly bool) ([]*domain.Package, error)
	// Update replaces a package and its items
	Update(ctx context.Context, pkg *domain.Package) error
	// Delete deletes a package
	Delete(ctx context.Context, id string) error
	// GetUserPackageForMonth returns the package whose validity equals the
	// month window exactly, or nil when the user has none
	GetUserPackageForMonth(ctx context.Context, userID string, monthStart, monthEnd time.Time) (*domain.UserPackage, error)
	// CreateUserPackage records an acquired package
	CreateUserPackage(ctx context.Context, up *domain.UserPackage) error
}

// RuleRepository defines the interface for scheduling rules and business hours
type RuleRepository interface {
	// CreateMany inserts rules in one transaction
	CreateMany(ctx context.Context, rules []*domain.SchedulingRule) error
	// ListWithClass lists rules joined with class name and duration
	ListWithClass(ctx context.Context) ([]*domain.SchedulingRule, error)
	// Delete deletes a rule
	Delete(ctx context.Context, id string) error
	// ListBusinessHours lists the configured opening hours
	ListBusinessHours(ctx context.Context) ([]*domain.BusinessHours, error)
	// UpsertBusinessHours inserts or replaces the hours of each listed day
	UpsertBusinessHours(ctx context.Context, hours []*domain.BusinessHours) error
}

// OutboxRepository defines the interface for outbox operations
type OutboxRepository interface {
	// CreateTx writes a message inside the caller's transaction
	CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error
	// GetPendingMessages claims up to limit pending messages not claimed within lease
	GetPendingMessages(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxMessage, error)
	// GetFailedMessages claims up to limit retryable failed messages last tried before retryAfter ago
	GetFailedMessages(ctx context.Context, limit int, retryAfter time.Duration) ([]*domain.OutboxMessage, error)
	// MarkAsPublished marks a message as published
	MarkAsPublished(ctx context.Context, id string) error
	// MarkAsFailed records a failed publish attempt
	MarkAsFailed(ctx context.Context, id string, errMsg string) error
	// DeletePublished removes published messages older than the retention
	DeletePublished(ctx context.Context, olderThanDays int) (int64, error)
}

// CreditCache caches credit summaries per user and month (YYYY-MM)
type CreditCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, userID, month string) (*domain.CreditSummary, error)
	Set(ctx context.Context, userID, month string, summary *domain.CreditSummary) error
	Invalidate(ctx context.Context, userID string, months ...string) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
