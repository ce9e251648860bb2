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
	"go.uber.org/zap"
)

const (
	defaultMaxGenerateDays = 92
	defaultListWindowDays  = 30
)

// ScheduleService lists, creates and generates class schedules
type ScheduleService interface {
	// ListUpcoming lists schedules in the requested window for userID
	ListUpcoming(ctx context.Context, userID string, q *dto.ListSchedulesQuery) ([]*dto.ScheduleResponse, error)

	// Create adds a single schedule for a class
	Create(ctx context.Context, req *dto.CreateScheduleRequest) (*domain.Schedule, error)

	// Delete removes a schedule and its bookings
	Delete(ctx context.Context, id string) error

	// Generate expands the scheduling rules over the requested dates
	Generate(ctx context.Context, req *dto.GenerateSchedulesRequest) (*dto.GenerateSchedulesResponse, error)
}

// ScheduleServiceConfig contains configuration for the schedule service
type ScheduleServiceConfig struct {
	Location        *time.Location
	MaxGenerateDays int
	Topic           string
}

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	classRepo    repository.ClassRepository
	ruleRepo     repository.RuleRepository
	credits      CreditService
	loc          *time.Location
	maxDays      int
	topic        string
	now          func() time.Time
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	classRepo repository.ClassRepository,
	ruleRepo repository.RuleRepository,
	credits CreditService,
	cfg *ScheduleServiceConfig,
) ScheduleService {
	s := &scheduleService{
		scheduleRepo: scheduleRepo,
		classRepo:    classRepo,
		ruleRepo:     ruleRepo,
		credits:      credits,
		loc:          time.UTC,
		maxDays:      defaultMaxGenerateDays,
		topic:        domain.TopicScheduleEvents,
		now:          time.Now,
	}
	if cfg != nil {
		if cfg.Location != nil {
			s.loc = cfg.Location
		}
		if cfg.MaxGenerateDays > 0 {
			s.maxDays = cfg.MaxGenerateDays
		}
		if cfg.Topic != "" {
			s.topic = cfg.Topic
		}
	}
	return s
}

func (s *scheduleService) parseDay(v string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, v, s.loc)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDateRange
	}
	return t, nil
}

// ListUpcoming lists schedules starting in the window. Without dates the
// window runs from now for 30 days; "to" is inclusive.
func (s *scheduleService) ListUpcoming(ctx context.Context, userID string, q *dto.ListSchedulesQuery) ([]*dto.ScheduleResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.schedule.list_upcoming")
	defer span.End()

	if q == nil {
		q = &dto.ListSchedulesQuery{}
	}

	from := s.now().In(s.loc)
	if q.From != "" {
		day, err := s.parseDay(q.From)
		if err != nil {
			return nil, err
		}
		from = day
	}
	to := domain.DateOf(from, s.loc).AddDate(0, 0, defaultListWindowDays)
	if q.To != "" {
		day, err := s.parseDay(q.To)
		if err != nil {
			return nil, err
		}
		to = day.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return nil, domain.ErrInvalidDateRange
	}

	span.SetAttributes(
		attribute.String("from", from.Format(time.RFC3339)),
		attribute.String("to", to.Format(time.RFC3339)),
		attribute.Bool("only_with_credits", q.OnlyWithCredits),
	)

	schedules, err := s.scheduleRepo.ListWithClass(ctx, userID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if q.OnlyWithCredits {
		if schedules, err = s.filterByCredits(ctx, userID, schedules); err != nil {
			return nil, err
		}
	}

	result := make([]*dto.ScheduleResponse, len(schedules))
	for i, sc := range schedules {
		result[i] = dto.FromScheduleWithClass(sc)
	}
	span.SetAttributes(attribute.Int("count", len(result)))
	return result, nil
}

// filterByCredits keeps schedules whose class type still has credits in the
// schedule's month
func (s *scheduleService) filterByCredits(ctx context.Context, userID string, schedules []*domain.ScheduleWithClass) ([]*domain.ScheduleWithClass, error) {
	if s.credits == nil {
		return schedules, nil
	}

	summaries := make(map[string]*domain.CreditSummary)
	filtered := make([]*domain.ScheduleWithClass, 0, len(schedules))
	for _, sc := range schedules {
		date := sc.BookingDate(s.loc)
		month := domain.MonthKey(date, s.loc)

		summary, ok := summaries[month]
		if !ok {
			var err error
			if summary, err = s.credits.Resolve(ctx, userID, date); err != nil {
				return nil, err
			}
			summaries[month] = summary
		}
		if summary.Check(sc.Class.Type) == nil {
			filtered = append(filtered, sc)
		}
	}
	return filtered, nil
}

// Create adds a single schedule. EndTime defaults to the class duration.
func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest) (*domain.Schedule, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.schedule.create")
	defer span.End()

	if _, err := uuid.Parse(req.ClassID); err != nil {
		return nil, domain.ErrInvalidClassID
	}
	span.SetAttributes(attribute.String("class_id", req.ClassID))

	class, err := s.classRepo.GetByID(ctx, req.ClassID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	schedule := &domain.Schedule{
		ClassID:   class.ID,
		StartTime: req.StartTime,
		EndTime:   req.StartTime.Add(class.EffectiveDuration()),
	}
	if req.EndTime != nil {
		schedule.EndTime = *req.EndTime
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("schedule_id", schedule.ID))
	return schedule, nil
}

// Delete removes a schedule; its bookings go with it
func (s *scheduleService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.schedule.delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidScheduleID
	}
	span.SetAttributes(attribute.String("schedule_id", id))

	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Generate expands every scheduling rule over [from, to] and inserts the
// schedules that do not exist yet
func (s *scheduleService) Generate(ctx context.Context, req *dto.GenerateSchedulesRequest) (*dto.GenerateSchedulesResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.schedule.generate")
	defer span.End()

	from, err := s.parseDay(req.From)
	if err != nil {
		return nil, err
	}
	to, err := s.parseDay(req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) || calendarDays(from, to) > s.maxDays {
		span.SetStatus(codes.Error, "invalid date range")
		return nil, domain.ErrInvalidDateRange
	}
	span.SetAttributes(attribute.String("from", req.From), attribute.String("to", req.To))

	rules, err := s.ruleRepo.ListWithClass(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	existing, err := s.scheduleRepo.ListSlots(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidates, skipped := ExpandRules(rules, from, to, s.loc, existing)
	resp := &dto.GenerateSchedulesResponse{From: req.From, To: req.To, Skipped: skipped}

	if len(candidates) > 0 {
		inserted, err := s.scheduleRepo.InsertBatch(ctx, candidates, func(inserted int) (*domain.OutboxMessage, error) {
			return domain.ScheduleGeneratedOutboxEvent(s.topic, &domain.ScheduleGeneratedEvent{
				From:       req.From,
				To:         req.To,
				Generated:  inserted,
				Skipped:    skipped + len(candidates) - inserted,
				OccurredAt: time.Now().UTC(),
			})
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		resp.Generated = inserted
		// rows created concurrently between ListSlots and the insert
		resp.Skipped += len(candidates) - inserted
	}

	metrics.RecordSchedulesGenerated(ctx, resp.Generated, resp.Skipped)
	logger.Get().InfoContext(ctx, "Schedules generated",
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.Int("rules", len(rules)),
		zap.Int("generated", resp.Generated),
		zap.Int("skipped", resp.Skipped),
	)

	span.SetAttributes(attribute.Int("generated", resp.Generated), attribute.Int("skipped", resp.Skipped))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
