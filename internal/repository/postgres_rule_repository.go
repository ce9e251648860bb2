package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/pkg/database"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresRuleRepository implements RuleRepository using PostgreSQL
type PostgresRuleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRuleRepository creates a new PostgresRuleRepository
func NewPostgresRuleRepository(pool *pgxpool.Pool) *PostgresRuleRepository {
	return &PostgresRuleRepository{pool: pool}
}

// CreateMany inserts all rules or none
func (r *PostgresRuleRepository) CreateMany(ctx context.Context, rules []*domain.SchedulingRule) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rule.create_many")
	defer span.End()
	span.SetAttributes(attribute.Int("count", len(rules)))

	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, rule := range rules {
			err := tx.QueryRow(ctx, `
				INSERT INTO scheduling_rules (day_of_week, start_time, class_id)
				VALUES ($1, $2, $3)
				RETURNING id, created_at`,
				rule.DayOfWeek, rule.StartTime, rule.ClassID,
			).Scan(&rule.ID, &rule.CreatedAt)
			if err != nil {
				switch {
				case database.IsUniqueViolation(err):
					return domain.ErrRuleAlreadyExists
				case database.IsForeignKeyViolation(err):
					return domain.ErrClassNotFound
				}
				return fmt.Errorf("failed to create scheduling rule: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// ListWithClass lists rules with their class name and duration
func (r *PostgresRuleRepository) ListWithClass(ctx context.Context) ([]*domain.SchedulingRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rule.list_with_class")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.day_of_week, r.start_time, r.class_id, r.created_at, c.name, c.duration
		FROM scheduling_rules r
		JOIN classes c ON c.id = r.class_id
		ORDER BY
			array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday'], r.day_of_week),
			r.start_time, c.name`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list scheduling rules: %w", err)
	}
	defer rows.Close()

	rules := []*domain.SchedulingRule{}
	for rows.Next() {
		rule := &domain.SchedulingRule{}
		err := rows.Scan(&rule.ID, &rule.DayOfWeek, &rule.StartTime, &rule.ClassID, &rule.CreatedAt,
			&rule.ClassName, &rule.ClassDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduling rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduling rules: %w", err)
	}
	return rules, nil
}

// Delete deletes a rule. Schedules already generated from it are kept.
func (r *PostgresRuleRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rule.delete")
	defer span.End()
	span.SetAttributes(attribute.String("rule_id", id))

	result, err := r.pool.Exec(ctx, `DELETE FROM scheduling_rules WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete scheduling rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

// ListBusinessHours lists business hours in weekday order
func (r *PostgresRuleRepository) ListBusinessHours(ctx context.Context) ([]*domain.BusinessHours, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rule.list_business_hours")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT day_of_week, morning_open, morning_close, afternoon_open, afternoon_close, updated_at
		FROM business_hours
		ORDER BY array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday'], day_of_week)`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list business hours: %w", err)
	}
	defer rows.Close()

	hours := []*domain.BusinessHours{}
	for rows.Next() {
		h := &domain.BusinessHours{}
		if err := rows.Scan(&h.DayOfWeek, &h.MorningOpen, &h.MorningClose, &h.AfternoonOpen, &h.AfternoonClose, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan business hours: %w", err)
		}
		hours = append(hours, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating business hours: %w", err)
	}
	return hours, nil
}

// UpsertBusinessHours replaces the hours of each listed day in one transaction
func (r *PostgresRuleRepository) UpsertBusinessHours(ctx context.Context, hours []*domain.BusinessHours) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.rule.upsert_business_hours")
	defer span.End()
	span.SetAttributes(attribute.Int("days", len(hours)))

	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, h := range hours {
			err := tx.QueryRow(ctx, `
				INSERT INTO business_hours (day_of_week, morning_open, morning_close, afternoon_open, afternoon_close)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (day_of_week) DO UPDATE SET
					morning_open = EXCLUDED.morning_open,
					morning_close = EXCLUDED.morning_close,
					afternoon_open = EXCLUDED.afternoon_open,
					afternoon_close = EXCLUDED.afternoon_close,
					updated_at = NOW()
				RETURNING updated_at`,
				h.DayOfWeek, h.MorningOpen, h.MorningClose, h.AfternoonOpen, h.AfternoonClose,
			).Scan(&h.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert business hours for %s: %w", h.DayOfWeek, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

var _ RuleRepository = (*PostgresRuleRepository)(nil)
