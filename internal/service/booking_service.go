package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/metrics"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BookingService defines the interface for booking business logic
type BookingService interface {
	// BookClass admits userID into a schedule
	BookClass(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error)

	// CancelBooking deletes a booking owned by userID
	CancelBooking(ctx context.Context, userID string, req *dto.CancelBookingRequest) (*dto.MessageResponse, error)

	// ListMyBookings lists the user's upcoming bookings
	ListMyBookings(ctx context.Context, userID string) ([]*dto.BookingResponse, error)
}

// ScheduleReader is the part of the schedule store the booking flow needs
type ScheduleReader interface {
	GetWithClass(ctx context.Context, id string) (*domain.ScheduleWithClass, error)
}

// BookingServiceConfig contains configuration for booking service
type BookingServiceConfig struct {
	EnforceCredits bool
	Location       *time.Location
}

type bookingService struct {
	bookingRepo    repository.BookingRepository
	schedules      ScheduleReader
	credits        CreditService
	enforceCredits bool
	loc            *time.Location
	now            func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo repository.BookingRepository,
	schedules ScheduleReader,
	credits CreditService,
	cfg *BookingServiceConfig,
) BookingService {
	s := &bookingService{
		bookingRepo: bookingRepo,
		schedules:   schedules,
		credits:     credits,
		loc:         time.UTC,
		now:         time.Now,
	}
	if cfg != nil {
		s.enforceCredits = cfg.EnforceCredits
		if cfg.Location != nil {
			s.loc = cfg.Location
		}
	}
	return s
}

// BookClass validates the request, runs the advisory credit check and then
// the authoritative admission transaction.
func (s *bookingService) BookClass(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.book_class")
	defer span.End()

	if _, err := uuid.Parse(userID); err != nil {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil {
		span.SetStatus(codes.Error, "invalid schedule_id")
		return nil, domain.ErrInvalidScheduleID
	}
	if _, err := uuid.Parse(req.ScheduleID); err != nil {
		span.SetStatus(codes.Error, "invalid schedule_id")
		return nil, domain.ErrInvalidScheduleID
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("schedule_id", req.ScheduleID),
	)

	sched, err := s.schedules.GetWithClass(ctx, req.ScheduleID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("class_type", sched.Class.Type))

	// Fast 403 path. The admission transaction repeats this check under lock.
	if s.enforceCredits && s.credits != nil {
		if err := s.credits.CheckEntitlement(ctx, userID, sched.Class.Type, sched.BookingDate(s.loc)); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	start := time.Now()
	metrics.AdmissionStarted(ctx)
	result, err := s.bookingRepo.Admit(ctx, domain.AdmissionRequest{
		BookingID:      uuid.NewString(),
		UserID:         userID,
		ScheduleID:     req.ScheduleID,
		EnforceCredits: s.enforceCredits,
		Location:       s.loc,
	})
	metrics.AdmissionFinished(ctx)

	if result != nil {
		metrics.RecordAdmission(ctx, result.Outcome.String(), sched.Class.Type, time.Since(start).Seconds())
		span.SetAttributes(attribute.String("outcome", result.Outcome.String()))
	}
	if err != nil {
		metrics.RecordError(ctx, "admission", "book_class")
		logger.Get().ErrorContext(ctx, "Booking admission failed",
			zap.String("user_id", userID),
			zap.String("schedule_id", req.ScheduleID),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result.Outcome != domain.OutcomeSuccess {
		err := result.Outcome.Err()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	booking := result.Booking
	if s.credits != nil {
		s.credits.Invalidate(ctx, userID, booking.BookingDate)
	}

	span.AddEvent("booking_admitted", trace.WithAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("booking_date", booking.BookingDate.Format(time.DateOnly)),
	))
	span.SetAttributes(attribute.String("booking_id", booking.ID))
	span.SetStatus(codes.Ok, "")

	return &dto.BookClassResponse{
		Message:   dto.MessageBookingSuccessful,
		BookingID: booking.ID,
	}, nil
}

// CancelBooking deletes a booking owned by userID
func (s *bookingService) CancelBooking(ctx context.Context, userID string, req *dto.CancelBookingRequest) (*dto.MessageResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.cancel")
	defer span.End()

	if _, err := uuid.Parse(userID); err != nil {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil {
		return nil, domain.ErrInvalidBookingID
	}
	// A malformed id cannot name an existing booking
	if _, err := uuid.Parse(req.BookingID); err != nil {
		span.SetStatus(codes.Error, "unknown booking_id")
		return nil, domain.NewCancelError(domain.ErrBookingNotFound)
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("booking_id", req.BookingID),
	)

	booking, err := s.bookingRepo.Cancel(ctx, req.BookingID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordCancellation(ctx)
	if s.credits != nil {
		s.credits.Invalidate(ctx, userID, domain.CalendarDate(booking.BookingDate, s.loc))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.MessageResponse{Message: dto.MessageBookingCancelled}, nil
}

// ListMyBookings lists the user's bookings whose class has not started yet
func (s *bookingService) ListMyBookings(ctx context.Context, userID string) ([]*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.list_mine")
	defer span.End()

	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrInvalidUserID
	}

	bookings, err := s.bookingRepo.ListByUser(ctx, userID, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := make([]*dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		result[i] = dto.FromBookingDetail(b)
	}
	span.SetAttributes(attribute.Int("count", len(result)))
	return result, nil
}
