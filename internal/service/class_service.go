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

// ClassService manages the class catalog
type ClassService interface {
	List(ctx context.Context) ([]*domain.ClassDefinition, error)
	Create(ctx context.Context, req *dto.ClassRequest) (*domain.ClassDefinition, error)
	Update(ctx context.Context, id string, req *dto.ClassRequest) (*domain.ClassDefinition, error)
	Delete(ctx context.Context, id string) error
}

type classService struct {
	classRepo repository.ClassRepository
}

// NewClassService creates a new class service
func NewClassService(classRepo repository.ClassRepository) ClassService {
	return &classService{classRepo: classRepo}
}

func (s *classService) List(ctx context.Context) ([]*domain.ClassDefinition, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.list")
	defer span.End()
	return s.classRepo.List(ctx)
}

func (s *classService) Create(ctx context.Context, req *dto.ClassRequest) (*domain.ClassDefinition, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.create")
	defer span.End()

	class := req.ToDomain()
	class.Normalize()
	if err := class.Validate(); err != nil {
		return nil, err
	}
	if err := s.classRepo.Create(ctx, class); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("class_id", class.ID))
	return class, nil
}

func (s *classService) Update(ctx context.Context, id string, req *dto.ClassRequest) (*domain.ClassDefinition, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.class.update")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidClassID
	}
	span.SetAttributes(attribute.String("class_id", id))

	class := req.ToDomain()
	class.ID = id
	class.Normalize()
	if err := class.Validate(); err != nil {
		return nil, err
	}
	if err := s.classRepo.Update(ctx, class); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return class, nil
}

func (s *classService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.class.delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidClassID
	}
	span.SetAttributes(attribute.String("class_id", id))
	return s.classRepo.Delete(ctx, id)
}
