package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// PackageService manages credit packages and their acquisition
type PackageService interface {
	// List lists packages; members only see active ones
	List(ctx context.Context, activeOnly bool) ([]*domain.Package, error)
	Create(ctx context.Context, req *dto.PackageRequest) (*domain.Package, error)
	Update(ctx context.Context, id string, req *dto.PackageRequest) (*domain.Package, error)
	Delete(ctx context.Context, id string) error

	// Acquire gives userID the package for the calendar month after now
	Acquire(ctx context.Context, userID, packageID string) (*dto.AcquirePackageResponse, error)
}

type packageService struct {
	packageRepo repository.PackageRepository
	credits     CreditService
	loc         *time.Location
	now         func() time.Time
}

// NewPackageService creates a new package service
func NewPackageService(packageRepo repository.PackageRepository, credits CreditService, loc *time.Location) PackageService {
	if loc == nil {
		loc = time.UTC
	}
	return &packageService{
		packageRepo: packageRepo,
		credits:     credits,
		loc:         loc,
		now:         time.Now,
	}
}

func (s *packageService) List(ctx context.Context, activeOnly bool) ([]*domain.Package, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.package.list")
	defer span.End()
	span.SetAttributes(attribute.Bool("active_only", activeOnly))
	return s.packageRepo.List(ctx, activeOnly)
}

func (s *packageService) Create(ctx context.Context, req *dto.PackageRequest) (*domain.Package, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.package.create")
	defer span.End()

	pkg := req.ToDomain()
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Create(ctx, pkg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return pkg, nil
}

func (s *packageService) Update(ctx context.Context, id string, req *dto.PackageRequest) (*domain.Package, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.package.update")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidPackageID
	}
	pkg := req.ToDomain()
	pkg.ID = id
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Update(ctx, pkg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return pkg, nil
}

func (s *packageService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.package.delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidPackageID
	}
	return s.packageRepo.Delete(ctx, id)
}

// Acquire records packageID for userID over next month. Only active
// packages can be acquired, once per month.
func (s *packageService) Acquire(ctx context.Context, userID, packageID string) (*dto.AcquirePackageResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.package.acquire")
	defer span.End()

	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrInvalidUserID
	}
	if _, err := uuid.Parse(packageID); err != nil {
		return nil, domain.ErrInvalidPackageID
	}
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("package_id", packageID))

	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !pkg.IsActive {
		span.SetStatus(codes.Error, "package inactive")
		return nil, domain.ErrPackageInactive
	}

	thisMonth, _ := domain.MonthWindow(s.now(), s.loc)
	from, until := domain.MonthWindow(thisMonth.AddDate(0, 1, 0), s.loc)
	up := &domain.UserPackage{
		UserID:     userID,
		PackageID:  pkg.ID,
		ValidFrom:  from,
		ValidUntil: domain.DateOf(until, s.loc),
		Package:    pkg,
	}
	if err := s.packageRepo.CreateUserPackage(ctx, up); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.credits != nil {
		s.credits.Invalidate(ctx, userID, from)
	}
	logger.Get().InfoContext(ctx, "Package acquired",
		zap.String("user_id", userID),
		zap.String("package_id", pkg.ID),
		zap.String("month", from.Format(domain.MonthKeyLayout)),
	)

	return &dto.AcquirePackageResponse{
		Message:       "Package acquired",
		UserPackageID: up.ID,
		ValidFrom:     up.ValidFrom.Format(time.DateOnly),
		ValidUntil:    up.ValidUntil.Format(time.DateOnly),
		Package:       pkg,
	}, nil
}
