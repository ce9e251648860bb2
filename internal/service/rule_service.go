package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// RuleService manages weekly scheduling rules and business hours
type RuleService interface {
	List(ctx context.Context) ([]*domain.SchedulingRule, error)
	// Create adds one rule per distinct day in req.Days
	Create(ctx context.Context, req *dto.CreateRulesRequest) ([]*domain.SchedulingRule, error)
	Delete(ctx context.Context, id string) error

	ListBusinessHours(ctx context.Context) ([]*domain.BusinessHours, error)
	UpdateBusinessHours(ctx context.Context, req *dto.UpdateBusinessHoursRequest) ([]*domain.BusinessHours, error)
}

type ruleService struct {
	ruleRepo  repository.RuleRepository
	classRepo repository.ClassRepository
}

// NewRuleService creates a new rule service
func NewRuleService(ruleRepo repository.RuleRepository, classRepo repository.ClassRepository) RuleService {
	return &ruleService{ruleRepo: ruleRepo, classRepo: classRepo}
}

func (s *ruleService) List(ctx context.Context) ([]*domain.SchedulingRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.rule.list")
	defer span.End()
	return s.ruleRepo.ListWithClass(ctx)
}

func (s *ruleService) Create(ctx context.Context, req *dto.CreateRulesRequest) ([]*domain.SchedulingRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.rule.create")
	defer span.End()

	if _, err := uuid.Parse(req.ClassID); err != nil {
		return nil, domain.ErrInvalidClassID
	}
	class, err := s.classRepo.GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Days))
	rules := make([]*domain.SchedulingRule, 0, len(req.Days))
	for _, day := range req.Days {
		rule := &domain.SchedulingRule{
			DayOfWeek: day,
			StartTime: req.StartTime,
			ClassID:   class.ID,
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if seen[rule.DayOfWeek] {
			continue
		}
		seen[rule.DayOfWeek] = true
		rule.ClassName = class.Name
		rule.ClassDuration = class.Duration
		rules = append(rules, rule)
	}

	if err := s.ruleRepo.CreateMany(ctx, rules); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("created", len(rules)))
	return rules, nil
}

func (s *ruleService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.rule.delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrRuleNotFound
	}
	return s.ruleRepo.Delete(ctx, id)
}

func (s *ruleService) ListBusinessHours(ctx context.Context) ([]*domain.BusinessHours, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.rule.list_business_hours")
	defer span.End()
	return s.ruleRepo.ListBusinessHours(ctx)
}

func (s *ruleService) UpdateBusinessHours(ctx context.Context, req *dto.UpdateBusinessHoursRequest) ([]*domain.BusinessHours, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.rule.update_business_hours")
	defer span.End()

	hours := make([]*domain.BusinessHours, len(req.Days))
	for i, d := range req.Days {
		h := &domain.BusinessHours{
			DayOfWeek:      d.DayOfWeek,
			MorningOpen:    d.MorningOpen,
			MorningClose:   d.MorningClose,
			AfternoonOpen:  d.AfternoonOpen,
			AfternoonClose: d.AfternoonClose,
		}
		if err := h.Validate(); err != nil {
			return nil, err
		}
		hours[i] = h
	}

	if err := s.ruleRepo.UpsertBusinessHours(ctx, hours); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.ruleRepo.ListBusinessHours(ctx)
}
