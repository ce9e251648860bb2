package handler

import (
	"context"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/service"
)

// MockBookingService is a mock implementation of BookingService for testing
type MockBookingService struct {
	BookClassFunc      func(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error)
	CancelBookingFunc  func(ctx context.Context, userID string, req *dto.CancelBookingRequest) (*dto.MessageResponse, error)
	ListMyBookingsFunc func(ctx context.Context, userID string) ([]*dto.BookingResponse, error)
}

func (m *MockBookingService) BookClass(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error) {
	if m.BookClassFunc != nil {
		return m.BookClassFunc(ctx, userID, req)
	}
	return &dto.BookClassResponse{Message: dto.MessageBookingSuccessful, BookingID: "b-1"}, nil
}

func (m *MockBookingService) CancelBooking(ctx context.Context, userID string, req *dto.CancelBookingRequest) (*dto.MessageResponse, error) {
	if m.CancelBookingFunc != nil {
		return m.CancelBookingFunc(ctx, userID, req)
	}
	return &dto.MessageResponse{Message: dto.MessageBookingCancelled}, nil
}

func (m *MockBookingService) ListMyBookings(ctx context.Context, userID string) ([]*dto.BookingResponse, error) {
	if m.ListMyBookingsFunc != nil {
		return m.ListMyBookingsFunc(ctx, userID)
	}
	return []*dto.BookingResponse{}, nil
}

// MockCreditService is a mock implementation of CreditService for testing
type MockCreditService struct {
	GetSummaryFunc func(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error)
}

func (m *MockCreditService) Resolve(ctx context.Context, userID string, ref time.Time) (*domain.CreditSummary, error) {
	return nil, nil
}

func (m *MockCreditService) CheckEntitlement(ctx context.Context, userID, classType string, ref time.Time) error {
	return nil
}

func (m *MockCreditService) GetSummary(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error) {
	if m.GetSummaryFunc != nil {
		return m.GetSummaryFunc(ctx, userID, now)
	}
	return &dto.CreditSummaryResponse{}, nil
}

func (m *MockCreditService) Invalidate(ctx context.Context, userID string, ref time.Time) {}

// MockScheduleService is a mock implementation of ScheduleService for testing
type MockScheduleService struct {
	ListUpcomingFunc func(ctx context.Context, userID string, q *dto.ListSchedulesQuery) ([]*dto.ScheduleResponse, error)
	CreateFunc       func(ctx context.Context, req *dto.CreateScheduleRequest) (*domain.Schedule, error)
	DeleteFunc       func(ctx context.Context, id string) error
	GenerateFunc     func(ctx context.Context, req *dto.GenerateSchedulesRequest) (*dto.GenerateSchedulesResponse, error)
}

func (m *MockScheduleService) ListUpcoming(ctx context.Context, userID string, q *dto.ListSchedulesQuery) ([]*dto.ScheduleResponse, error) {
	if m.ListUpcomingFunc != nil {
		return m.ListUpcomingFunc(ctx, userID, q)
	}
	return []*dto.ScheduleResponse{}, nil
}

func (m *MockScheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest) (*domain.Schedule, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &domain.Schedule{ClassID: req.ClassID, StartTime: req.StartTime}, nil
}

func (m *MockScheduleService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockScheduleService) Generate(ctx context.Context, req *dto.GenerateSchedulesRequest) (*dto.GenerateSchedulesResponse, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &dto.GenerateSchedulesResponse{From: req.From, To: req.To}, nil
}

// MockClassService is a mock implementation of ClassService for testing
type MockClassService struct {
	ListFunc   func(ctx context.Context) ([]*domain.ClassDefinition, error)
	CreateFunc func(ctx context.Context, req *dto.ClassRequest) (*domain.ClassDefinition, error)
	UpdateFunc func(ctx context.Context, id string, req *dto.ClassRequest) (*domain.ClassDefinition, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *MockClassService) List(ctx context.Context) ([]*domain.ClassDefinition, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*domain.ClassDefinition{}, nil
}

func (m *MockClassService) Create(ctx context.Context, req *dto.ClassRequest) (*domain.ClassDefinition, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return req.ToDomain(), nil
}

func (m *MockClassService) Update(ctx context.Context, id string, req *dto.ClassRequest) (*domain.ClassDefinition, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, req)
	}
	return req.ToDomain(), nil
}

func (m *MockClassService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPackageService is a mock implementation of PackageService for testing
type MockPackageService struct {
	ListFunc    func(ctx context.Context, activeOnly bool) ([]*domain.Package, error)
	AcquireFunc func(ctx context.Context, userID, packageID string) (*dto.AcquirePackageResponse, error)
}

func (m *MockPackageService) List(ctx context.Context, activeOnly bool) ([]*domain.Package, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, activeOnly)
	}
	return []*domain.Package{}, nil
}

func (m *MockPackageService) Create(ctx context.Context, req *dto.PackageRequest) (*domain.Package, error) {
	return req.ToDomain(), nil
}

func (m *MockPackageService) Update(ctx context.Context, id string, req *dto.PackageRequest) (*domain.Package, error) {
	return req.ToDomain(), nil
}

func (m *MockPackageService) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *MockPackageService) Acquire(ctx context.Context, userID, packageID string) (*dto.AcquirePackageResponse, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, userID, packageID)
	}
	return &dto.AcquirePackageResponse{Message: "Package acquired"}, nil
}

// MockRuleService is a mock implementation of RuleService for testing
type MockRuleService struct {
	CreateFunc func(ctx context.Context, req *dto.CreateRulesRequest) ([]*domain.SchedulingRule, error)
}

func (m *MockRuleService) List(ctx context.Context) ([]*domain.SchedulingRule, error) {
	return []*domain.SchedulingRule{}, nil
}

func (m *MockRuleService) Create(ctx context.Context, req *dto.CreateRulesRequest) ([]*domain.SchedulingRule, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return []*domain.SchedulingRule{}, nil
}

func (m *MockRuleService) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *MockRuleService) ListBusinessHours(ctx context.Context) ([]*domain.BusinessHours, error) {
	return []*domain.BusinessHours{}, nil
}

func (m *MockRuleService) UpdateBusinessHours(ctx context.Context, req *dto.UpdateBusinessHoursRequest) ([]*domain.BusinessHours, error) {
	return []*domain.BusinessHours{}, nil
}

var (
	_ service.BookingService  = (*MockBookingService)(nil)
	_ service.CreditService   = (*MockCreditService)(nil)
	_ service.ScheduleService = (*MockScheduleService)(nil)
	_ service.ClassService    = (*MockClassService)(nil)
	_ service.PackageService  = (*MockPackageService)(nil)
	_ service.RuleService     = (*MockRuleService)(nil)
)
