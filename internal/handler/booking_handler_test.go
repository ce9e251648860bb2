package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "0b8f6d0e-4c1a-4c7e-9d35-2f6a1b7f0c11"

func init() {
	gin.SetMode(gin.TestMode)
	if err := dto.RegisterValidators(); err != nil {
		panic(err)
	}
}

type testServices struct {
	booking  *MockBookingService
	credit   *MockCreditService
	schedule *MockScheduleService
	class    *MockClassService
	pkg      *MockPackageService
	rule     *MockRuleService
}

func newTestServices() *testServices {
	return &testServices{
		booking:  &MockBookingService{},
		credit:   &MockCreditService{},
		schedule: &MockScheduleService{},
		class:    &MockClassService{},
		pkg:      &MockPackageService{},
		rule:     &MockRuleService{},
	}
}

// fakeAuth stands in for JWTAuth; an empty userID leaves the request anonymous
func fakeAuth(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
			c.Set(middleware.ContextKeyRole, role)
		}
		c.Next()
	}
}

func setupTestRouter(s *testServices, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	h := &Handlers{
		Health:   NewHealthHandler(nil, nil, nil),
		Booking:  NewBookingHandler(s.booking),
		Credit:   NewCreditHandler(s.credit),
		Schedule: NewScheduleHandler(s.schedule),
		Catalog:  NewCatalogHandler(s.class, s.pkg, s.rule),
	}
	h.Register(router, RouteOptions{Auth: auth})
	return router
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBookClass_Success(t *testing.T) {
	s := newTestServices()
	var gotUser, gotSchedule string
	s.booking.BookClassFunc = func(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error) {
		gotUser, gotSchedule = userID, req.ScheduleID
		return &dto.BookClassResponse{Message: dto.MessageBookingSuccessful, BookingID: "b-42"}, nil
	}
	router := setupTestRouter(s, fakeAuth(testUserID, "member"))

	w := doJSON(router, http.MethodPost, "/api/v1/book-class", map[string]string{"schedule_id": "s-1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, testUserID, gotUser)
	assert.Equal(t, "s-1", gotSchedule)

	var resp dto.BookClassResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Booking successful", resp.Message)
	assert.Equal(t, "b-42", resp.BookingID)
}

func TestBookClass_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"already booked", domain.ErrAlreadyBooked, http.StatusConflict, "ALREADY_BOOKED"},
		{"class full", domain.ErrClassFull, http.StatusConflict, "CLASS_FULL"},
		{"schedule not found", domain.ErrScheduleNotFound, http.StatusNotFound, "SCHEDULE_NOT_FOUND"},
		{"insert failed", fmt.Errorf("%w: deadlock detected", domain.ErrInsertFailed), http.StatusInternalServerError, "ERROR_INSERT_FAILED"},
		{"no package", domain.ErrNoActivePackage, http.StatusForbidden, "NO_ACTIVE_PACKAGE"},
		{"type not covered", domain.ErrClassTypeNotCovered, http.StatusForbidden, "CLASS_TYPE_NOT_COVERED"},
		{"no credits", domain.ErrNoCreditsRemaining, http.StatusForbidden, "NO_CREDITS"},
		{"invalid schedule id", domain.ErrInvalidScheduleID, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices()
			s.booking.BookClassFunc = func(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error) {
				return nil, tt.err
			}
			router := setupTestRouter(s, fakeAuth(testUserID, "member"))

			w := doJSON(router, http.MethodPost, "/api/v1/book-class", map[string]string{"schedule_id": "s-1"})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestBookClass_InternalErrorDoesNotLeak(t *testing.T) {
	s := newTestServices()
	s.booking.BookClassFunc = func(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error) {
		return nil, errors.New("password authentication failed for user gym")
	}
	router := setupTestRouter(s, fakeAuth(testUserID, "member"))

	w := doJSON(router, http.MethodPost, "/api/v1/book-class", map[string]string{"schedule_id": "s-1"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestBookClass_BadRequests(t *testing.T) {
	called := false
	s := newTestServices()
	s.booking.BookClassFunc = func(ctx context.Context, userID string, req *dto.BookClassRequest) (*dto.BookClassResponse, error) {
		called = true
		return nil, nil
	}

	t.Run("missing schedule_id", func(t *testing.T) {
		router := setupTestRouter(s, fakeAuth(testUserID, "member"))
		w := doJSON(router, http.MethodPost, "/api/v1/book-class", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router := setupTestRouter(s, fakeAuth("", ""))
		w := doJSON(router, http.MethodPost, "/api/v1/book-class", map[string]string{"schedule_id": "s-1"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)
	})

	assert.False(t, called)
}

func TestCancelBooking(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"not found", domain.NewCancelError(domain.ErrBookingNotFound), http.StatusNotFound, "CANCEL_FAILED"},
		{"not owner", domain.NewCancelError(domain.ErrNotBookingOwner), http.StatusForbidden, "CANCEL_FAILED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices()
			var gotBooking string
			s.booking.CancelBookingFunc = func(ctx context.Context, userID string, req *dto.CancelBookingRequest) (*dto.MessageResponse, error) {
				gotBooking = req.BookingID
				if tt.err != nil {
					return nil, tt.err
				}
				return &dto.MessageResponse{Message: dto.MessageBookingCancelled}, nil
			}
			router := setupTestRouter(s, fakeAuth(testUserID, "member"))

			w := doJSON(router, http.MethodPost, "/api/v1/cancel-booking", map[string]string{"booking_id": "b-1"})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "b-1", gotBooking)
			if tt.err == nil {
				var resp dto.MessageResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Booking cancelled successfully", resp.Message)
				return
			}
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestCancelBooking_MissingBookingID(t *testing.T) {
	router := setupTestRouter(newTestServices(), fakeAuth(testUserID, "member"))

	w := doJSON(router, http.MethodPost, "/api/v1/cancel-booking", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMyBookings(t *testing.T) {
	s := newTestServices()
	start := time.Date(2026, 11, 3, 7, 30, 0, 0, time.UTC)
	s.booking.ListMyBookingsFunc = func(ctx context.Context, userID string) ([]*dto.BookingResponse, error) {
		return []*dto.BookingResponse{{ID: "b-1", ClassName: "Morning Flow", StartTime: start}}, nil
	}
	router := setupTestRouter(s, fakeAuth(testUserID, "member"))

	w := doJSON(router, http.MethodGet, "/api/v1/bookings", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data  []dto.BookingResponse `json:"data"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Morning Flow", resp.Data[0].ClassName)
	assert.True(t, start.Equal(resp.Data[0].StartTime))
}

func TestGetCreditSummary(t *testing.T) {
	s := newTestServices()
	s.credit.GetSummaryFunc = func(ctx context.Context, userID string, now time.Time) (*dto.CreditSummaryResponse, error) {
		return &dto.CreditSummaryResponse{
			Current: &domain.CreditSummary{Month: "2026-11"},
		}, nil
	}
	router := setupTestRouter(s, fakeAuth(testUserID, "member"))

	w := doJSON(router, http.MethodGet, "/api/v1/credits", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"month":"2026-11"`)
}
