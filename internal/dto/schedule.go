package dto

import (
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
)

// ListSchedulesQuery are the query parameters of GET /schedules.
// Dates are YYYY-MM-DD in the gym time zone. Both are optional.
type ListSchedulesQuery struct {
	From            string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To              string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	OnlyWithCredits bool   `form:"only_with_credits"`
}

// ScheduleResponse is one entry of the upcoming schedule list
type ScheduleResponse struct {
	ID              string    `json:"id"`
	ClassID         string    `json:"class_id"`
	ClassName       string    `json:"class_name"`
	ClassType       string    `json:"class_type"`
	Instructor      string    `json:"instructor"`
	Icon            string    `json:"icon,omitempty"`
	BackgroundColor string    `json:"background_color,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Capacity        int       `json:"capacity"`
	BookedSpots     int       `json:"booked_spots"`
	AvailableSpots  int       `json:"available_spots"`
	IsBookedByUser  bool      `json:"is_booked_by_user"`
}

// FromScheduleWithClass converts a domain ScheduleWithClass to ScheduleResponse
func FromScheduleWithClass(s *domain.ScheduleWithClass) *ScheduleResponse {
	return &ScheduleResponse{
		ID:              s.ID,
		ClassID:         s.ClassID,
		ClassName:       s.Class.Name,
		ClassType:       s.Class.Type,
		Instructor:      s.Class.Instructor,
		Icon:            s.Class.Icon,
		BackgroundColor: s.Class.BackgroundColor,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Capacity:        s.Class.Capacity,
		BookedSpots:     s.BookedSpots,
		AvailableSpots:  s.AvailableSpots(),
		IsBookedByUser:  s.IsBookedByUser,
	}
}

// CreateScheduleRequest creates a single schedule. EndTime defaults to
// StartTime plus the class duration.
type CreateScheduleRequest struct {
	ClassID   string     `json:"class_id" binding:"required,uuid"`
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time"`
}

// GenerateSchedulesRequest expands scheduling rules over [From, To]
type GenerateSchedulesRequest struct {
	From string `json:"from" binding:"required,datetime=2006-01-02"`
	To   string `json:"to" binding:"required,datetime=2006-01-02"`
}

// GenerateSchedulesResponse reports how many schedules were created
type GenerateSchedulesResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
}
