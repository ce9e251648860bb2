package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func strPtr(s string) *string { return &s }

func TestCreateRulesRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRulesRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  CreateRulesRequest{ClassID: "8b6f2d0e-8a43-4a4c-9f41-2f3a1f0e6b11", Days: []string{"Monday", "wednesday"}, StartTime: "07:30"},
		},
		{
			name:    "bad weekday",
			req:     CreateRulesRequest{ClassID: "8b6f2d0e-8a43-4a4c-9f41-2f3a1f0e6b11", Days: []string{"Monday", "Someday"}, StartTime: "07:30"},
			wantErr: true,
		},
		{
			name:    "bad clock",
			req:     CreateRulesRequest{ClassID: "8b6f2d0e-8a43-4a4c-9f41-2f3a1f0e6b11", Days: []string{"Monday"}, StartTime: "7:30pm"},
			wantErr: true,
		},
		{
			name:    "no days",
			req:     CreateRulesRequest{ClassID: "8b6f2d0e-8a43-4a4c-9f41-2f3a1f0e6b11", StartTime: "07:30"},
			wantErr: true,
		},
		{
			name:    "class id not uuid",
			req:     CreateRulesRequest{ClassID: "yoga", Days: []string{"Monday"}, StartTime: "07:30"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateBusinessHoursRequest_Validation(t *testing.T) {
	valid := UpdateBusinessHoursRequest{Days: []BusinessHoursDay{
		{DayOfWeek: "Monday", MorningOpen: strPtr("07:00"), MorningClose: strPtr("13:00")},
		{DayOfWeek: "Sunday"},
	}}
	require.NoError(t, binding.Validator.ValidateStruct(&valid))

	invalid := UpdateBusinessHoursRequest{Days: []BusinessHoursDay{
		{DayOfWeek: "Monday", AfternoonClose: strPtr("21:75")},
	}}
	assert.Error(t, binding.Validator.ValidateStruct(&invalid))
}

func TestPackageRequest_ToDomain(t *testing.T) {
	req := PackageRequest{
		Name:  "Full month",
		Price: 49.9,
		Items: []PackageItemRequest{
			{ClassType: "Funcional", Credits: 8},
			{ClassType: "Yoga", Credits: 4},
		},
	}

	p := req.ToDomain()
	assert.True(t, p.IsActive)
	require.Len(t, p.Items, 2)
	assert.Equal(t, 0, p.Items[0].Position)
	assert.Equal(t, "Yoga", p.Items[1].ClassType)
	assert.Equal(t, 1, p.Items[1].Position)

	inactive := false
	req.IsActive = &inactive
	assert.False(t, req.ToDomain().IsActive)
}

func TestClassRequest_ToDomain_DefaultDuration(t *testing.T) {
	req := ClassRequest{Name: "Spinning", Type: "Cycling", Capacity: 12}
	c := req.ToDomain()
	assert.Equal(t, 60, c.Duration)
	assert.NoError(t, c.Validate())
}
