package dto

import "github.com/prohmpiriya/gym-booking/internal/domain"

// ClassRequest is the body for creating or replacing a class
type ClassRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	Type            string `json:"type" binding:"required,max=100"`
	Instructor      string `json:"instructor" binding:"max=255"`
	Duration        int    `json:"duration" binding:"omitempty,min=1,max=600"`
	Capacity        int    `json:"capacity" binding:"required,min=1"`
	Icon            string `json:"icon"`
	BackgroundColor string `json:"background_color"`
}

// ToDomain converts the request to a ClassDefinition. Duration defaults to 60.
func (r *ClassRequest) ToDomain() *domain.ClassDefinition {
	duration := r.Duration
	if duration <= 0 {
		duration = domain.DefaultClassDuration
	}
	return &domain.ClassDefinition{
		Name:            r.Name,
		Type:            r.Type,
		Instructor:      r.Instructor,
		Duration:        duration,
		Capacity:        r.Capacity,
		Icon:            r.Icon,
		BackgroundColor: r.BackgroundColor,
	}
}
