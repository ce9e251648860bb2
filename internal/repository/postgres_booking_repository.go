package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/pkg/database"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresBookingRepository implements BookingRepository using PostgreSQL with pgxpool.
// Admissions for one schedule are serialized by a row lock on that schedule;
// credit consumption of one user is serialized by a transaction-scoped
// advisory lock. Locks are always taken in that order.
type PostgresBookingRepository struct {
	pool   *pgxpool.Pool
	outbox OutboxRepository
	topic  string
	loc    *time.Location
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository.
// Booking events are written to outbox for topic. Booking dates read back
// from the database are placed in loc, the gym time zone.
func NewPostgresBookingRepository(pool *pgxpool.Pool, outbox OutboxRepository, topic string, loc *time.Location) *PostgresBookingRepository {
	if topic == "" {
		topic = domain.TopicBookingEvents
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresBookingRepository{pool: pool, outbox: outbox, topic: topic, loc: loc}
}

// Admit decides and applies one booking attempt in a single transaction
func (r *PostgresBookingRepository) Admit(ctx context.Context, req domain.AdmissionRequest) (*domain.AdmissionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.admit")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("schedule_id", req.ScheduleID),
		attribute.Bool("enforce_credits", req.EnforceCredits),
	)

	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reject := func(outcome domain.AdmissionOutcome) (*domain.AdmissionResult, error) {
		span.SetAttributes(attribute.String("outcome", outcome.String()))
		return &domain.AdmissionResult{Outcome: outcome}, nil
	}

	// Lock the schedule row. Concurrent admissions for the same schedule queue here.
	sched := &domain.ScheduleWithClass{}
	err = tx.QueryRow(ctx, `
		SELECT s.id, s.class_id, s.start_time, s.end_time, c.id, c.name, c.type, c.capacity
		FROM schedules s
		JOIN classes c ON c.id = s.class_id
		WHERE s.id = $1
		FOR UPDATE OF s`,
		req.ScheduleID,
	).Scan(
		&sched.ID, &sched.ClassID, &sched.StartTime, &sched.EndTime,
		&sched.Class.ID, &sched.Class.Name, &sched.Class.Type, &sched.Class.Capacity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reject(domain.OutcomeScheduleNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to lock schedule: %w", err)
	}

	snap := domain.AdmissionSnapshot{
		ScheduleFound: true,
		Capacity:      sched.Class.Capacity,
		ClassType:     sched.Class.Type,
	}
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM bookings WHERE schedule_id = $1 AND user_id = $2),
			(SELECT COUNT(*) FROM bookings WHERE schedule_id = $1)`,
		req.ScheduleID, req.UserID,
	).Scan(&snap.AlreadyBooked, &snap.BookedCount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read seat state: %w", err)
	}
	span.SetAttributes(attribute.Int("booked_count", snap.BookedCount), attribute.Int("capacity", snap.Capacity))

	if outcome := domain.DecideAdmission(snap); outcome != domain.OutcomeSuccess {
		return reject(outcome)
	}

	bookingDate := sched.BookingDate(loc)

	if req.EnforceCredits {
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended('credits:' || $1::text, 0))`,
			req.UserID,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to lock user credits: %w", err)
		}

		monthStart, monthEnd := domain.MonthWindow(bookingDate, loc)
		up, err := getUserPackageForMonth(ctx, tx, req.UserID, monthStart, monthEnd)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		var booked []string
		if up != nil {
			if booked, err = listBookedClassTypes(ctx, tx, req.UserID, monthStart, monthEnd); err != nil {
				span.RecordError(err)
				return nil, err
			}
		}

		snap.EnforceCredits = true
		snap.Month = monthStart.Format(domain.MonthKeyLayout)
		snap.Package = up
		snap.BookedTypes = booked
		if outcome := domain.DecideAdmission(snap); outcome != domain.OutcomeSuccess {
			return reject(outcome)
		}
	}

	if req.BookingID == "" {
		req.BookingID = uuid.NewString()
	}
	booking := &domain.Booking{
		ID:          req.BookingID,
		UserID:      req.UserID,
		ScheduleID:  req.ScheduleID,
		BookingDate: bookingDate,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, schedule_id, booking_date)
		VALUES ($1, $2, $3, $4::date)
		ON CONFLICT (user_id, schedule_id) DO NOTHING
		RETURNING created_at`,
		booking.ID, booking.UserID, booking.ScheduleID, dateOnly(bookingDate),
	).Scan(&booking.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reject(domain.OutcomeAlreadyBooked)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("outcome", domain.OutcomeInsertFailed.String()))
		return &domain.AdmissionResult{Outcome: domain.OutcomeInsertFailed},
			fmt.Errorf("%w: %v", domain.ErrInsertFailed, err)
	}

	msg, err := domain.BookingOutboxEvent(r.topic, domain.NewBookingEvent(domain.BookingEventCreated, booking, sched))
	if err != nil {
		return nil, fmt.Errorf("failed to build booking event: %w", err)
	}
	if err := r.outbox.CreateTx(ctx, tx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetAttributes(
		attribute.String("outcome", domain.OutcomeSuccess.String()),
		attribute.String("booking_id", booking.ID),
	)
	span.SetStatus(codes.Ok, "")
	return &domain.AdmissionResult{Outcome: domain.OutcomeSuccess, Booking: booking}, nil
}

// Cancel deletes a booking owned by userID. When nothing is deleted the
// booking is probed to tell "missing" from "owned by someone else".
func (r *PostgresBookingRepository) Cancel(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.cancel")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("user_id", userID),
	)

	booking := &domain.Booking{}
	sched := &domain.ScheduleWithClass{}

	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			DELETE FROM bookings b
			USING schedules s, classes c
			WHERE b.id = $1 AND b.user_id = $2
				AND s.id = b.schedule_id AND c.id = s.class_id
			RETURNING b.id, b.user_id, b.schedule_id, b.booking_date, b.created_at,
				s.class_id, s.start_time, c.name, c.type`,
			bookingID, userID,
		).Scan(
			&booking.ID, &booking.UserID, &booking.ScheduleID, &booking.BookingDate, &booking.CreatedAt,
			&sched.ClassID, &sched.StartTime, &sched.Class.Name, &sched.Class.Type,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return probeCancel(ctx, tx, bookingID)
		}
		if err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}
		booking.BookingDate = domain.CalendarDate(booking.BookingDate, r.loc)

		msg, err := domain.BookingOutboxEvent(r.topic, domain.NewBookingEvent(domain.BookingEventCancelled, booking, sched))
		if err != nil {
			return fmt.Errorf("failed to build booking event: %w", err)
		}
		return r.outbox.CreateTx(ctx, tx, msg)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

func probeCancel(ctx context.Context, q querier, bookingID string) error {
	var owner string
	err := q.QueryRow(ctx, `SELECT user_id FROM bookings WHERE id = $1`, bookingID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewCancelError(domain.ErrBookingNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to probe booking: %w", err)
	}
	return domain.NewCancelError(domain.ErrNotBookingOwner)
}

// ListByUser lists a user's bookings for schedules starting at or after from
func (r *PostgresBookingRepository) ListByUser(ctx context.Context, userID string, from time.Time) ([]*domain.BookingDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_by_user")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.user_id, b.schedule_id, b.booking_date, b.created_at,
			s.start_time, s.end_time,
			c.id, c.name, c.type, c.instructor, c.duration, c.capacity, c.icon, c.background_color
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		JOIN classes c ON c.id = s.class_id
		WHERE b.user_id = $1 AND s.start_time >= $2
		ORDER BY s.start_time`,
		userID, from)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*domain.BookingDetail{}
	for rows.Next() {
		b := &domain.BookingDetail{}
		err := rows.Scan(
			&b.ID, &b.UserID, &b.ScheduleID, &b.BookingDate, &b.CreatedAt,
			&b.StartTime, &b.EndTime,
			&b.Class.ID, &b.Class.Name, &b.Class.Type, &b.Class.Instructor,
			&b.Class.Duration, &b.Class.Capacity, &b.Class.Icon, &b.Class.BackgroundColor,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.BookingDate = domain.CalendarDate(b.BookingDate, r.loc)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

// ListBookedClassTypes returns the class types booked by the user in [from, to]
func (r *PostgresBookingRepository) ListBookedClassTypes(ctx context.Context, userID string, from, to time.Time) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_booked_class_types")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	types, err := listBookedClassTypes(ctx, r.pool, userID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("count", len(types)))
	return types, nil
}

func listBookedClassTypes(ctx context.Context, q querier, userID string, from, to time.Time) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT c.type
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		JOIN classes c ON c.id = s.class_id
		WHERE b.user_id = $1 AND b.booking_date BETWEEN $2::date AND $3::date
		ORDER BY b.booking_date, b.created_at`,
		userID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list booked class types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan class type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// CountBySchedule counts the bookings of a schedule
func (r *PostgresBookingRepository) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.count_by_schedule")
	defer span.End()

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE schedule_id = $1`, scheduleID).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

var _ BookingRepository = (*PostgresBookingRepository)(nil)
