package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/pkg/database"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresScheduleRepository implements ScheduleRepository using PostgreSQL
type PostgresScheduleRepository struct {
	pool   *pgxpool.Pool
	outbox OutboxRepository
}

// NewPostgresScheduleRepository creates a new PostgresScheduleRepository
func NewPostgresScheduleRepository(pool *pgxpool.Pool, outbox OutboxRepository) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{pool: pool, outbox: outbox}
}

// scheduleWithClassColumns selects a schedule, its class and its seat count.
// The caller appends the is_booked_by_user expression.
const scheduleWithClassColumns = `
	s.id, s.class_id, s.start_time, s.end_time, s.created_at,
	c.id, c.name, c.type, c.instructor, c.duration, c.capacity,
	c.icon, c.background_color, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM bookings b WHERE b.schedule_id = s.id) AS booked_spots`

func scanScheduleWithClass(row pgx.Row) (*domain.ScheduleWithClass, error) {
	s := &domain.ScheduleWithClass{}
	err := row.Scan(
		&s.ID,
		&s.ClassID,
		&s.StartTime,
		&s.EndTime,
		&s.CreatedAt,
		&s.Class.ID,
		&s.Class.Name,
		&s.Class.Type,
		&s.Class.Instructor,
		&s.Class.Duration,
		&s.Class.Capacity,
		&s.Class.Icon,
		&s.Class.BackgroundColor,
		&s.Class.CreatedAt,
		&s.Class.UpdatedAt,
		&s.BookedSpots,
		&s.IsBookedByUser,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create creates a single schedule
func (r *PostgresScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.schedule.create")
	defer span.End()
	span.SetAttributes(attribute.String("class_id", schedule.ClassID))

	query := `
		INSERT INTO schedules (class_id, start_time, end_time)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, schedule.ClassID, schedule.StartTime, schedule.EndTime).
		Scan(&schedule.ID, &schedule.CreatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return domain.ErrScheduleAlreadyExists
		case database.IsForeignKeyViolation(err):
			return domain.ErrClassNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetWithClass retrieves a schedule with its class and booked spots
func (r *PostgresScheduleRepository) GetWithClass(ctx context.Context, id string) (*domain.ScheduleWithClass, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.schedule.get_with_class")
	defer span.End()
	span.SetAttributes(attribute.String("schedule_id", id))

	query := `SELECT ` + scheduleWithClassColumns + `, FALSE
		FROM schedules s
		JOIN classes c ON c.id = s.class_id
		WHERE s.id = $1`

	s, err := scanScheduleWithClass(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrScheduleNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

// ListWithClass lists schedules starting in [from, to)
func (r *PostgresScheduleRepository) ListWithClass(ctx context.Context, userID string, from, to time.Time) ([]*domain.ScheduleWithClass, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.schedule.list_with_class")
	defer span.End()

	query := `SELECT ` + scheduleWithClassColumns + `,
			EXISTS (SELECT 1 FROM bookings b WHERE b.schedule_id = s.id AND b.user_id = $3) AS is_booked_by_user
		FROM schedules s
		JOIN classes c ON c.id = s.class_id
		WHERE s.start_time >= $1 AND s.start_time < $2
		ORDER BY s.start_time, c.name`

	rows, err := r.pool.Query(ctx, query, from, to, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	schedules := []*domain.ScheduleWithClass{}
	for rows.Next() {
		s, err := scanScheduleWithClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(schedules)))
	return schedules, nil
}

// ListSlots returns existing (class_id, start_time) pairs in [from, to)
func (r *PostgresScheduleRepository) ListSlots(ctx context.Context, from, to time.Time) (map[domain.SlotKey]struct{}, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.schedule.list_slots")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT class_id, start_time FROM schedules WHERE start_time >= $1 AND start_time < $2`,
		from, to)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list schedule slots: %w", err)
	}
	defer rows.Close()

	slots := make(map[domain.SlotKey]struct{})
	for rows.Next() {
		var (
			classID string
			start   time.Time
		)
		if err := rows.Scan(&classID, &start); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		slots[domain.NewSlotKey(classID, start)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule slots: %w", err)
	}
	return slots, nil
}

// InsertBatch inserts schedules in one statement. Pairs that already exist are skipped.
func (r *PostgresScheduleRepository) InsertBatch(ctx context.Context, schedules []*domain.Schedule, buildEvent OutboxBuilder) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.schedule.insert_batch")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates", len(schedules)))

	if len(schedules) == 0 {
		return 0, nil
	}

	classIDs := make([]string, len(schedules))
	starts := make([]time.Time, len(schedules))
	ends := make([]time.Time, len(schedules))
	for i, s := range schedules {
		classIDs[i] = s.ClassID
		starts[i] = s.StartTime
		ends[i] = s.EndTime
	}

	query := `
		INSERT INTO schedules (class_id, start_time, end_time)
		SELECT t.class_id::uuid, t.start_time, t.end_time
		FROM unnest($1::text[], $2::timestamptz[], $3::timestamptz[]) AS t(class_id, start_time, end_time)
		ON CONFLICT (class_id, start_time) DO NOTHING
	`

	var inserted int
	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, classIDs, starts, ends)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return domain.ErrClassNotFound
			}
			return fmt.Errorf("failed to insert schedules: %w", err)
		}
		inserted = int(result.RowsAffected())

		if inserted == 0 || buildEvent == nil || r.outbox == nil {
			return nil
		}
		msg, err := buildEvent(inserted)
		if err != nil {
			return fmt.Errorf("failed to build outbox message: %w", err)
		}
		return r.outbox.CreateTx(ctx, tx, msg)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int("inserted", inserted))
	return inserted, nil
}

// Delete deletes a schedule
func (r *PostgresScheduleRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.schedule.delete")
	defer span.End()
	span.SetAttributes(attribute.String("schedule_id", id))

	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

var _ ScheduleRepository = (*PostgresScheduleRepository)(nil)
