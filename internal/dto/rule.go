package dto

// CreateRulesRequest creates one scheduling rule per entry in Days
type CreateRulesRequest struct {
	ClassID   string   `json:"class_id" binding:"required,uuid"`
	Days      []string `json:"days" binding:"required,min=1,dive,weekday"`
	StartTime string   `json:"start_time" binding:"required,clock"`
}

// BusinessHoursDay are the opening hours of one weekday. Nil means closed.
type BusinessHoursDay struct {
	DayOfWeek      string  `json:"day_of_week" binding:"required,weekday"`
	MorningOpen    *string `json:"morning_open" binding:"omitempty,clock"`
	MorningClose   *string `json:"morning_close" binding:"omitempty,clock"`
	AfternoonOpen  *string `json:"afternoon_open" binding:"omitempty,clock"`
	AfternoonClose *string `json:"afternoon_close" binding:"omitempty,clock"`
}

// UpdateBusinessHoursRequest upserts the hours of the listed days
type UpdateBusinessHoursRequest struct {
	Days []BusinessHoursDay `json:"days" binding:"required,min=1,dive"`
}
