package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// CreditService resolves a member's monthly package and remaining credits
type CreditService interface {
	// Resolve computes the credit summary of the month containing ref
	Resolve(ctx context.Context, userID string, ref time.Time) (*domain.CreditSummary, error)

	// CheckEntitlement reports whether one more booking of classType is covered
	// in the month containing ref. Advisory: admission re-checks under lock.
	CheckEntitlement(ctx context.Context, userID, classType string, ref time.Time) error

	// GetSummary returns the summaries of the current and the next month, cached
	GetSummary(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error)

	// Invalidate drops the cached summary of the month containing ref
	Invalidate(ctx context.Context, userID string, ref time.Time)
}

type creditService struct {
	packageRepo repository.PackageRepository
	bookingRepo repository.BookingRepository
	cache       repository.CreditCache
	loc         *time.Location
}

// NewCreditService creates a new credit service. cache may be nil.
func NewCreditService(
	packageRepo repository.PackageRepository,
	bookingRepo repository.BookingRepository,
	cache repository.CreditCache,
	loc *time.Location,
) CreditService {
	if loc == nil {
		loc = time.UTC
	}
	return &creditService{
		packageRepo: packageRepo,
		bookingRepo: bookingRepo,
		cache:       cache,
		loc:         loc,
	}
}

// Resolve computes the credit summary of the month containing ref
func (s *creditService) Resolve(ctx context.Context, userID string, ref time.Time) (*domain.CreditSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.credit.resolve")
	defer span.End()

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	monthStart, monthEnd := domain.MonthWindow(ref, s.loc)
	month := monthStart.Format(domain.MonthKeyLayout)
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("month", month))

	up, err := s.packageRepo.GetUserPackageForMonth(ctx, userID, monthStart, monthEnd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if up == nil {
		span.SetAttributes(attribute.Bool("has_package", false))
		return domain.NewCreditSummary(month, nil, nil), nil
	}

	booked, err := s.bookingRepo.ListBookedClassTypes(ctx, userID, monthStart, monthEnd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Bool("has_package", true), attribute.Int("booked", len(booked)))
	return domain.NewCreditSummary(month, up, booked), nil
}

// CheckEntitlement reports whether one more booking of classType is covered
func (s *creditService) CheckEntitlement(ctx context.Context, userID, classType string, ref time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "service.credit.check_entitlement")
	defer span.End()
	span.SetAttributes(attribute.String("class_type", classType))

	summary, err := s.Resolve(ctx, userID, ref)
	if err != nil {
		return err
	}
	if err := summary.Check(classType); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// GetSummary returns the current and next month summaries
func (s *creditService) GetSummary(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.credit.get_summary")
	defer span.End()

	current, err := s.cachedResolve(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	monthStart, _ := domain.MonthWindow(now, s.loc)
	next, err := s.cachedResolve(ctx, userID, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	return &dto.CreditSummaryResponse{Current: current, Next: next}, nil
}

// cachedResolve reads through the credit cache. Cache failures are logged
// and fall back to the database.
func (s *creditService) cachedResolve(ctx context.Context, userID string, ref time.Time) (*domain.CreditSummary, error) {
	month := domain.MonthKey(ref, s.loc)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID, month)
		if err != nil {
			logger.Get().WarnContext(ctx, "Credit cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	summary, err := s.Resolve(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, month, summary); err != nil {
			logger.Get().WarnContext(ctx, "Credit cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary of the month containing ref
func (s *creditService) Invalidate(ctx context.Context, userID string, ref time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID, domain.MonthKey(ref, s.loc)); err != nil {
		logger.Get().WarnContext(ctx, "Credit cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
