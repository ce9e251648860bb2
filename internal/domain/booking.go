package domain

import "time"

// Booking is a user's reservation of one seat in a schedule
type Booking struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ScheduleID  string    `json:"schedule_id"`
	BookingDate time.Time `json:"booking_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingDetail is a booking joined with its schedule and class for "my bookings"
type BookingDetail struct {
	Booking
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Class     ClassDefinition `json:"class"`
}
