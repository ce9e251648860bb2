package dto

import (
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
)

// Success messages returned by the booking endpoints
const (
	MessageBookingSuccessful = "Booking successful"
	MessageBookingCancelled  = "Booking cancelled successfully"
)

// BookClassRequest is the body of POST /book-class
type BookClassRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required"`
}

// BookClassResponse is returned on a successful admission
type BookClassResponse struct {
	Message   string `json:"message"`
	BookingID string `json:"booking_id"`
}

// CancelBookingRequest is the body of POST /cancel-booking
type CancelBookingRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// BookingResponse is one entry of "my bookings"
type BookingResponse struct {
	ID          string    `json:"id"`
	ScheduleID  string    `json:"schedule_id"`
	BookingDate string    `json:"booking_date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ClassID     string    `json:"class_id"`
	ClassName   string    `json:"class_name"`
	ClassType   string    `json:"class_type"`
	Instructor  string    `json:"instructor"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromBookingDetail converts a domain BookingDetail to BookingResponse
func FromBookingDetail(b *domain.BookingDetail) *BookingResponse {
	return &BookingResponse{
		ID:          b.ID,
		ScheduleID:  b.ScheduleID,
		BookingDate: b.BookingDate.Format(time.DateOnly),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		ClassID:     b.Class.ID,
		ClassName:   b.Class.Name,
		ClassType:   b.Class.Type,
		Instructor:  b.Class.Instructor,
		Icon:        b.Class.Icon,
		CreatedAt:   b.CreatedAt,
	}
}
