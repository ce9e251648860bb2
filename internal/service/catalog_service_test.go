package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageService_Acquire(t *testing.T) {
	userID, packageID := uuid.NewString(), uuid.NewString()
	now := time.Date(2026, 12, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		pkg       *domain.Package
		createErr error
		wantErr   error
	}{
		{
			name: "acquires next month",
			pkg:  &domain.Package{ID: packageID, Name: "Full", IsActive: true},
		},
		{
			name:    "inactive package",
			pkg:     &domain.Package{ID: packageID, Name: "Old", IsActive: false},
			wantErr: domain.ErrPackageInactive,
		},
		{
			name:      "already acquired",
			pkg:       &domain.Package{ID: packageID, Name: "Full", IsActive: true},
			createErr: domain.ErrPackageAlreadyAcquired,
			wantErr:   domain.ErrPackageAlreadyAcquired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *domain.UserPackage
			repo := &MockPackageRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.Package, error) { return tt.pkg, nil },
				CreateUserPackageFunc: func(ctx context.Context, up *domain.UserPackage) error {
					if tt.createErr != nil {
						return tt.createErr
					}
					created = up
					up.ID = "up-1"
					return nil
				},
			}
			var invalidated []string
			credits := &MockCreditService{
				InvalidateFunc: func(ctx context.Context, uid string, ref time.Time) {
					invalidated = append(invalidated, ref.Format(domain.MonthKeyLayout))
				},
			}
			svc := NewPackageService(repo, credits, time.UTC).(*packageService)
			svc.now = func() time.Time { return now }

			resp, err := svc.Acquire(context.Background(), userID, packageID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, invalidated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2027-01-01", resp.ValidFrom)
			assert.Equal(t, "2027-01-31", resp.ValidUntil)
			assert.Equal(t, "up-1", resp.UserPackageID)
			assert.Equal(t, userID, created.UserID)
			assert.Equal(t, []string{"2027-01"}, invalidated)
		})
	}
}

func TestPackageService_Acquire_InvalidIDs(t *testing.T) {
	svc := NewPackageService(&MockPackageRepository{}, nil, nil)

	_, err := svc.Acquire(context.Background(), "x", uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
	_, err = svc.Acquire(context.Background(), uuid.NewString(), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidPackageID)
	_, err = svc.Acquire(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestPackageService_CreateKeepsItemOrder(t *testing.T) {
	var saved *domain.Package
	repo := &MockPackageRepository{
		CreateFunc: func(ctx context.Context, pkg *domain.Package) error {
			saved = pkg
			return nil
		},
	}
	svc := NewPackageService(repo, nil, nil)

	_, err := svc.Create(context.Background(), &dto.PackageRequest{
		Name: " Combo ",
		Items: []dto.PackageItemRequest{
			{ClassType: "Funcional", Credits: 8},
			{ClassType: " Yoga ", Credits: 4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Combo", saved.Name)
	assert.True(t, saved.IsActive)
	assert.Equal(t, "Yoga", saved.Items[1].ClassType)
	assert.Equal(t, 1, saved.Items[1].Position)

	_, err = svc.Create(context.Background(), &dto.PackageRequest{Name: "Bad", Items: []dto.PackageItemRequest{{ClassType: " "}}})
	assert.ErrorIs(t, err, domain.ErrInvalidPackageItem)
}

func TestRuleService_Create_OneRulePerDay(t *testing.T) {
	classID := uuid.NewString()
	classRepo := &MockClassRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.ClassDefinition, error) {
			return &domain.ClassDefinition{ID: id, Name: "Crossfit", Duration: 50}, nil
		},
	}
	var saved []*domain.SchedulingRule
	ruleRepo := &MockRuleRepository{
		CreateManyFunc: func(ctx context.Context, rules []*domain.SchedulingRule) error {
			saved = rules
			return nil
		},
	}
	svc := NewRuleService(ruleRepo, classRepo)

	rules, err := svc.Create(context.Background(), &dto.CreateRulesRequest{
		ClassID:   classID,
		Days:      []string{"monday", "Wednesday", "MONDAY"},
		StartTime: "18:30",
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, saved, rules)
	assert.Equal(t, "Monday", rules[0].DayOfWeek)
	assert.Equal(t, "Wednesday", rules[1].DayOfWeek)
	assert.Equal(t, 50, rules[0].ClassDuration)

	_, err = svc.Create(context.Background(), &dto.CreateRulesRequest{ClassID: classID, Days: []string{"Funday"}, StartTime: "18:30"})
	assert.ErrorIs(t, err, domain.ErrInvalidDayOfWeek)

	_, err = svc.Create(context.Background(), &dto.CreateRulesRequest{ClassID: classID, Days: []string{"Friday"}, StartTime: "7pm"})
	assert.ErrorIs(t, err, domain.ErrInvalidClockTime)
}

func TestRuleService_UpdateBusinessHours(t *testing.T) {
	open, closeAt := "07:00", "12:00"
	var upserted []*domain.BusinessHours
	ruleRepo := &MockRuleRepository{
		UpsertBusinessHoursFunc: func(ctx context.Context, hours []*domain.BusinessHours) error {
			upserted = hours
			return nil
		},
		ListBusinessHoursFunc: func(ctx context.Context) ([]*domain.BusinessHours, error) {
			return upserted, nil
		},
	}
	svc := NewRuleService(ruleRepo, &MockClassRepository{})

	hours, err := svc.UpdateBusinessHours(context.Background(), &dto.UpdateBusinessHoursRequest{
		Days: []dto.BusinessHoursDay{{DayOfWeek: "saturday", MorningOpen: &open, MorningClose: &closeAt}},
	})
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.Equal(t, "Saturday", hours[0].DayOfWeek)
	assert.Nil(t, hours[0].AfternoonOpen)

	bad := "7:00"
	_, err = svc.UpdateBusinessHours(context.Background(), &dto.UpdateBusinessHoursRequest{
		Days: []dto.BusinessHoursDay{{DayOfWeek: "Sunday", MorningOpen: &bad}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidClockTime)
}

func TestClassService_CreateAndUpdate(t *testing.T) {
	var saved *domain.ClassDefinition
	repo := &MockClassRepository{
		CreateFunc: func(ctx context.Context, c *domain.ClassDefinition) error {
			saved = c
			c.ID = uuid.NewString()
			return nil
		},
		UpdateFunc: func(ctx context.Context, c *domain.ClassDefinition) error {
			saved = c
			return nil
		},
	}
	svc := NewClassService(repo)

	class, err := svc.Create(context.Background(), &dto.ClassRequest{Name: "Morning Flow", Type: "  Yoga ", Capacity: 12})
	require.NoError(t, err)
	assert.Equal(t, "Yoga", saved.Type)
	assert.Equal(t, domain.DefaultClassDuration, class.Duration)

	_, err = svc.Create(context.Background(), &dto.ClassRequest{Name: "Empty", Type: "Yoga", Capacity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	id := uuid.NewString()
	updated, err := svc.Update(context.Background(), id, &dto.ClassRequest{Name: "Evening Flow", Type: "Yoga", Capacity: 8, Duration: 75})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, 75, saved.Duration)

	_, err = svc.Update(context.Background(), "nope", &dto.ClassRequest{Name: "x", Type: "y", Capacity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidClassID)
}
