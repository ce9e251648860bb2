package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresClassRepository implements ClassRepository using PostgreSQL
type PostgresClassRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresClassRepository creates a new PostgresClassRepository
func NewPostgresClassRepository(pool *pgxpool.Pool) *PostgresClassRepository {
	return &PostgresClassRepository{pool: pool}
}

const classColumns = `id, name, type, instructor, duration, capacity, icon, background_color, created_at, updated_at`

func scanClass(row pgx.Row) (*domain.ClassDefinition, error) {
	c := &domain.ClassDefinition{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Type,
		&c.Instructor,
		&c.Duration,
		&c.Capacity,
		&c.Icon,
		&c.BackgroundColor,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create creates a new class
func (r *PostgresClassRepository) Create(ctx context.Context, class *domain.ClassDefinition) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.create")
	defer span.End()

	query := `
		INSERT INTO classes (name, type, instructor, duration, capacity, icon, background_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		class.Name,
		class.Type,
		class.Instructor,
		class.Duration,
		class.Capacity,
		class.Icon,
		class.BackgroundColor,
	).Scan(&class.ID, &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create class: %w", err)
	}

	span.SetAttributes(attribute.String("class_id", class.ID))
	return nil
}

// GetByID retrieves a class by its ID
func (r *PostgresClassRepository) GetByID(ctx context.Context, id string) (*domain.ClassDefinition, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.get_by_id")
	defer span.End()
	span.SetAttributes(attribute.String("class_id", id))

	c, err := scanClass(r.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClassNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return c, nil
}

// List lists all classes
func (r *PostgresClassRepository) List(ctx context.Context) ([]*domain.ClassDefinition, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.list")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT `+classColumns+` FROM classes ORDER BY name, type`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := []*domain.ClassDefinition{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classes: %w", err)
	}
	return classes, nil
}

// Update replaces a class
func (r *PostgresClassRepository) Update(ctx context.Context, class *domain.ClassDefinition) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.update")
	defer span.End()
	span.SetAttributes(attribute.String("class_id", class.ID))

	query := `
		UPDATE classes SET
			name = $2, type = $3, instructor = $4, duration = $5,
			capacity = $6, icon = $7, background_color = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		class.ID,
		class.Name,
		class.Type,
		class.Instructor,
		class.Duration,
		class.Capacity,
		class.Icon,
		class.BackgroundColor,
	).Scan(&class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrClassNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update class: %w", err)
	}
	return nil
}

// Delete deletes a class
func (r *PostgresClassRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.class.delete")
	defer span.End()
	span.SetAttributes(attribute.String("class_id", id))

	result, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

var _ ClassRepository = (*PostgresClassRepository)(nil)
