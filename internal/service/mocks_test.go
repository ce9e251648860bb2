package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/repository"
)

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	AdmitFunc                func(ctx context.Context, req domain.AdmissionRequest) (*domain.AdmissionResult, error)
	CancelFunc               func(ctx context.Context, bookingID, userID string) (*domain.Booking, error)
	ListByUserFunc           func(ctx context.Context, userID string, from time.Time) ([]*domain.BookingDetail, error)
	ListBookedClassTypesFunc func(ctx context.Context, userID string, from, to time.Time) ([]string, error)
	CountByScheduleFunc      func(ctx context.Context, scheduleID string) (int, error)
}

func (m *MockBookingRepository) Admit(ctx context.Context, req domain.AdmissionRequest) (*domain.AdmissionResult, error) {
	if m.AdmitFunc != nil {
		return m.AdmitFunc(ctx, req)
	}
	return &domain.AdmissionResult{
		Outcome: domain.OutcomeSuccess,
		Booking: &domain.Booking{ID: req.BookingID, UserID: req.UserID, ScheduleID: req.ScheduleID},
	}, nil
}

func (m *MockBookingRepository) Cancel(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, bookingID, userID)
	}
	return nil, domain.NewCancelError(domain.ErrBookingNotFound)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, from time.Time) ([]*domain.BookingDetail, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, from)
	}
	return []*domain.BookingDetail{}, nil
}

func (m *MockBookingRepository) ListBookedClassTypes(ctx context.Context, userID string, from, to time.Time) ([]string, error) {
	if m.ListBookedClassTypesFunc != nil {
		return m.ListBookedClassTypesFunc(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *MockBookingRepository) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	if m.CountByScheduleFunc != nil {
		return m.CountByScheduleFunc(ctx, scheduleID)
	}
	return 0, nil
}

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	CreateFunc        func(ctx context.Context, schedule *domain.Schedule) error
	GetWithClassFunc  func(ctx context.Context, id string) (*domain.ScheduleWithClass, error)
	ListWithClassFunc func(ctx context.Context, userID string, from, to time.Time) ([]*domain.ScheduleWithClass, error)
	ListSlotsFunc     func(ctx context.Context, from, to time.Time) (map[domain.SlotKey]struct{}, error)
	InsertBatchFunc   func(ctx context.Context, schedules []*domain.Schedule, buildEvent repository.OutboxBuilder) (int, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, schedule)
	}
	schedule.ID = "00000000-0000-0000-0000-000000000001"
	return nil
}

func (m *MockScheduleRepository) GetWithClass(ctx context.Context, id string) (*domain.ScheduleWithClass, error) {
	if m.GetWithClassFunc != nil {
		return m.GetWithClassFunc(ctx, id)
	}
	return nil, domain.ErrScheduleNotFound
}

func (m *MockScheduleRepository) ListWithClass(ctx context.Context, userID string, from, to time.Time) ([]*domain.ScheduleWithClass, error) {
	if m.ListWithClassFunc != nil {
		return m.ListWithClassFunc(ctx, userID, from, to)
	}
	return []*domain.ScheduleWithClass{}, nil
}

func (m *MockScheduleRepository) ListSlots(ctx context.Context, from, to time.Time) (map[domain.SlotKey]struct{}, error) {
	if m.ListSlotsFunc != nil {
		return m.ListSlotsFunc(ctx, from, to)
	}
	return map[domain.SlotKey]struct{}{}, nil
}

func (m *MockScheduleRepository) InsertBatch(ctx context.Context, schedules []*domain.Schedule, buildEvent repository.OutboxBuilder) (int, error) {
	if m.InsertBatchFunc != nil {
		return m.InsertBatchFunc(ctx, schedules, buildEvent)
	}
	return len(schedules), nil
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockClassRepository is a mock implementation of ClassRepository
type MockClassRepository struct {
	CreateFunc  func(ctx context.Context, class *domain.ClassDefinition) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.ClassDefinition, error)
	ListFunc    func(ctx context.Context) ([]*domain.ClassDefinition, error)
	UpdateFunc  func(ctx context.Context, class *domain.ClassDefinition) error
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockClassRepository) Create(ctx context.Context, class *domain.ClassDefinition) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, class)
	}
	return nil
}

func (m *MockClassRepository) GetByID(ctx context.Context, id string) (*domain.ClassDefinition, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrClassNotFound
}

func (m *MockClassRepository) List(ctx context.Context) ([]*domain.ClassDefinition, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*domain.ClassDefinition{}, nil
}

func (m *MockClassRepository) Update(ctx context.Context, class *domain.ClassDefinition) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, class)
	}
	return nil
}

func (m *MockClassRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPackageRepository is a mock implementation of PackageRepository
type MockPackageRepository struct {
	CreateFunc                 func(ctx context.Context, pkg *domain.Package) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.Package, error)
	ListFunc                   func(ctx context.Context, activeOnly bool) ([]*domain.Package, error)
	UpdateFunc                 func(ctx context.Context, pkg *domain.Package) error
	DeleteFunc                 func(ctx context.Context, id string) error
	GetUserPackageForMonthFunc func(ctx context.Context, userID string, monthStart, monthEnd time.Time) (*domain.UserPackage, error)
	CreateUserPackageFunc      func(ctx context.Context, up *domain.UserPackage) error
}

func (m *MockPackageRepository) Create(ctx context.Context, pkg *domain.Package) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pkg)
	}
	return nil
}

func (m *MockPackageRepository) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrPackageNotFound
}

func (m *MockPackageRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Package, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, activeOnly)
	}
	return []*domain.Package{}, nil
}

func (m *MockPackageRepository) Update(ctx context.Context, pkg *domain.Package) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, pkg)
	}
	return nil
}

func (m *MockPackageRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockPackageRepository) GetUserPackageForMonth(ctx context.Context, userID string, monthStart, monthEnd time.Time) (*domain.UserPackage, error) {
	if m.GetUserPackageForMonthFunc != nil {
		return m.GetUserPackageForMonthFunc(ctx, userID, monthStart, monthEnd)
	}
	return nil, nil
}

func (m *MockPackageRepository) CreateUserPackage(ctx context.Context, up *domain.UserPackage) error {
	if m.CreateUserPackageFunc != nil {
		return m.CreateUserPackageFunc(ctx, up)
	}
	up.ID = "00000000-0000-0000-0000-0000000000aa"
	return nil
}

// MockRuleRepository is a mock implementation of RuleRepository
type MockRuleRepository struct {
	CreateManyFunc          func(ctx context.Context, rules []*domain.SchedulingRule) error
	ListWithClassFunc       func(ctx context.Context) ([]*domain.SchedulingRule, error)
	DeleteFunc              func(ctx context.Context, id string) error
	ListBusinessHoursFunc   func(ctx context.Context) ([]*domain.BusinessHours, error)
	UpsertBusinessHoursFunc func(ctx context.Context, hours []*domain.BusinessHours) error
}

func (m *MockRuleRepository) CreateMany(ctx context.Context, rules []*domain.SchedulingRule) error {
	if m.CreateManyFunc != nil {
		return m.CreateManyFunc(ctx, rules)
	}
	return nil
}

func (m *MockRuleRepository) ListWithClass(ctx context.Context) ([]*domain.SchedulingRule, error) {
	if m.ListWithClassFunc != nil {
		return m.ListWithClassFunc(ctx)
	}
	return []*domain.SchedulingRule{}, nil
}

func (m *MockRuleRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockRuleRepository) ListBusinessHours(ctx context.Context) ([]*domain.BusinessHours, error) {
	if m.ListBusinessHoursFunc != nil {
		return m.ListBusinessHoursFunc(ctx)
	}
	return []*domain.BusinessHours{}, nil
}

func (m *MockRuleRepository) UpsertBusinessHours(ctx context.Context, hours []*domain.BusinessHours) error {
	if m.UpsertBusinessHoursFunc != nil {
		return m.UpsertBusinessHoursFunc(ctx, hours)
	}
	return nil
}

// MockCreditCache is a mock implementation of CreditCache
type MockCreditCache struct {
	GetFunc        func(ctx context.Context, userID, month string) (*domain.CreditSummary, error)
	SetFunc        func(ctx context.Context, userID, month string, summary *domain.CreditSummary) error
	InvalidateFunc func(ctx context.Context, userID string, months ...string) error
}

func (m *MockCreditCache) Get(ctx context.Context, userID, month string) (*domain.CreditSummary, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, month)
	}
	return nil, nil
}

func (m *MockCreditCache) Set(ctx context.Context, userID, month string, summary *domain.CreditSummary) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, userID, month, summary)
	}
	return nil
}

func (m *MockCreditCache) Invalidate(ctx context.Context, userID string, months ...string) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, userID, months...)
	}
	return nil
}

// MockCreditService is a mock implementation of CreditService
type MockCreditService struct {
	ResolveFunc          func(ctx context.Context, userID string, ref time.Time) (*domain.CreditSummary, error)
	CheckEntitlementFunc func(ctx context.Context, userID, classType string, ref time.Time) error
	GetSummaryFunc       func(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error)
	InvalidateFunc       func(ctx context.Context, userID string, ref time.Time)
}

func (m *MockCreditService) Resolve(ctx context.Context, userID string, ref time.Time) (*domain.CreditSummary, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, userID, ref)
	}
	return domain.NewCreditSummary(domain.MonthKey(ref, time.UTC), nil, nil), nil
}

func (m *MockCreditService) CheckEntitlement(ctx context.Context, userID, classType string, ref time.Time) error {
	if m.CheckEntitlementFunc != nil {
		return m.CheckEntitlementFunc(ctx, userID, classType, ref)
	}
	return nil
}

func (m *MockCreditService) GetSummary(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error) {
	if m.GetSummaryFunc != nil {
		return m.GetSummaryFunc(ctx, userID, now)
	}
	return &dto.CreditSummaryResponse{}, nil
}

func (m *MockCreditService) Invalidate(ctx context.Context, userID string, ref time.Time) {
	if m.InvalidateFunc != nil {
		m.InvalidateFunc(ctx, userID, ref)
	}
}

var (
	_ repository.BookingRepository  = (*MockBookingRepository)(nil)
	_ repository.ScheduleRepository = (*MockScheduleRepository)(nil)
	_ repository.ClassRepository    = (*MockClassRepository)(nil)
	_ repository.PackageRepository  = (*MockPackageRepository)(nil)
	_ repository.RuleRepository     = (*MockRuleRepository)(nil)
	_ repository.CreditCache        = (*MockCreditCache)(nil)
	_ CreditService                 = (*MockCreditService)(nil)
)
