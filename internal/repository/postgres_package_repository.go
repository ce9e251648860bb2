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

// PostgresPackageRepository implements PackageRepository using PostgreSQL
type PostgresPackageRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPackageRepository creates a new PostgresPackageRepository
func NewPostgresPackageRepository(pool *pgxpool.Pool) *PostgresPackageRepository {
	return &PostgresPackageRepository{pool: pool}
}

const packageColumns = `id, name, description, price::float8, is_active, created_at, updated_at`

func scanPackage(row pgx.Row) (*domain.Package, error) {
	p := &domain.Package{Items: []domain.PackageItem{}}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// loadItems fills Items of every package, in position order
func loadItems(ctx context.Context, q querier, packages ...*domain.Package) error {
	if len(packages) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Package, len(packages))
	ids := make([]string, 0, len(packages))
	for _, p := range packages {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT id, package_id, class_type, credits, position
		FROM package_items
		WHERE package_id::text = ANY($1::text[])
		ORDER BY package_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to load package items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.PackageItem
		if err := rows.Scan(&item.ID, &item.PackageID, &item.ClassType, &item.Credits, &item.Position); err != nil {
			return fmt.Errorf("failed to scan package item: %w", err)
		}
		if p, ok := byID[item.PackageID]; ok {
			p.Items = append(p.Items, item)
		}
	}
	return rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, pkg *domain.Package) error {
	for i := range pkg.Items {
		item := &pkg.Items[i]
		item.PackageID = pkg.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO package_items (package_id, class_type, credits, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			pkg.ID, item.ClassType, item.Credits, item.Position,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert package item: %w", err)
		}
	}
	return nil
}

// Create creates a package and its items
func (r *PostgresPackageRepository) Create(ctx context.Context, pkg *domain.Package) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.create")
	defer span.End()

	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO packages (name, description, price, is_active)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			pkg.Name, pkg.Description, pkg.Price, pkg.IsActive,
		).Scan(&pkg.ID, &pkg.CreatedAt, &pkg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create package: %w", err)
		}
		return insertItems(ctx, tx, pkg)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("package_id", pkg.ID))
	return nil
}

// GetByID retrieves a package with its items
func (r *PostgresPackageRepository) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.get_by_id")
	defer span.End()
	span.SetAttributes(attribute.String("package_id", id))

	p, err := scanPackage(r.pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if err := loadItems(ctx, r.pool, p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return p, nil
}

// List lists packages with their items
func (r *PostgresPackageRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Package, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.list")
	defer span.End()
	span.SetAttributes(attribute.Bool("active_only", activeOnly))

	rows, err := r.pool.Query(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE is_active OR NOT $1 ORDER BY price, name`,
		activeOnly)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	packages := []*domain.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	if err := loadItems(ctx, r.pool, packages...); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return packages, nil
}

// Update replaces a package and all of its items
func (r *PostgresPackageRepository) Update(ctx context.Context, pkg *domain.Package) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.update")
	defer span.End()
	span.SetAttributes(attribute.String("package_id", pkg.ID))

	err := database.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE packages SET
				name = $2, description = $3, price = $4, is_active = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at`,
			pkg.ID, pkg.Name, pkg.Description, pkg.Price, pkg.IsActive,
		).Scan(&pkg.CreatedAt, &pkg.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrPackageNotFound
			}
			return fmt.Errorf("failed to update package: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM package_items WHERE package_id = $1`, pkg.ID); err != nil {
			return fmt.Errorf("failed to replace package items: %w", err)
		}
		return insertItems(ctx, tx, pkg)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Delete deletes a package. Packages owned by users cannot be deleted; deactivate them instead.
func (r *PostgresPackageRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.delete")
	defer span.End()
	span.SetAttributes(attribute.String("package_id", id))

	result, err := r.pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.ErrPackageAlreadyAcquired
		}
		span.RecordError(err)
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

// GetUserPackageForMonth returns the user's package for the month window, or nil
func (r *PostgresPackageRepository) GetUserPackageForMonth(ctx context.Context, userID string, monthStart, monthEnd time.Time) (*domain.UserPackage, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.get_user_package_for_month")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("month", monthStart.Format(domain.MonthKeyLayout)),
	)

	up, err := getUserPackageForMonth(ctx, r.pool, userID, monthStart, monthEnd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("found", up != nil))
	return up, nil
}

// getUserPackageForMonth matches validity dates exactly against the month
// window. It runs on a pool or inside the admission transaction.
func getUserPackageForMonth(ctx context.Context, q querier, userID string, monthStart, monthEnd time.Time) (*domain.UserPackage, error) {
	up := &domain.UserPackage{}
	pkg := &domain.Package{Items: []domain.PackageItem{}}

	err := q.QueryRow(ctx, `
		SELECT up.id, up.user_id, up.package_id, up.valid_from, up.valid_until, up.created_at,
			p.id, p.name, p.description, p.price::float8, p.is_active, p.created_at, p.updated_at
		FROM user_packages up
		JOIN packages p ON p.id = up.package_id
		WHERE up.user_id = $1 AND up.valid_from = $2::date AND up.valid_until = $3::date`,
		userID, dateOnly(monthStart), dateOnly(monthEnd),
	).Scan(
		&up.ID, &up.UserID, &up.PackageID, &up.ValidFrom, &up.ValidUntil, &up.CreatedAt,
		&pkg.ID, &pkg.Name, &pkg.Description, &pkg.Price, &pkg.IsActive, &pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user package: %w", err)
	}

	if err := loadItems(ctx, q, pkg); err != nil {
		return nil, err
	}
	up.Package = pkg
	return up, nil
}

// CreateUserPackage records an acquired package for one month
func (r *PostgresPackageRepository) CreateUserPackage(ctx context.Context, up *domain.UserPackage) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.package.create_user_package")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", up.UserID),
		attribute.String("package_id", up.PackageID),
	)

	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_packages (user_id, package_id, valid_from, valid_until)
		VALUES ($1, $2, $3::date, $4::date)
		RETURNING id, created_at`,
		up.UserID, up.PackageID, dateOnly(up.ValidFrom), dateOnly(up.ValidUntil),
	).Scan(&up.ID, &up.CreatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return domain.ErrPackageAlreadyAcquired
		case database.IsForeignKeyViolation(err):
			return domain.ErrPackageNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create user package: %w", err)
	}
	return nil
}

// dateOnly formats t as YYYY-MM-DD in its own location so the driver never
// shifts the calendar day through a UTC conversion
func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}

var _ PackageRepository = (*PostgresPackageRepository)(nil)
