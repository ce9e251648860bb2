package domain

import (
	"strings"
	"time"
)

// DefaultClassDuration is used when a class or rule carries no positive duration (minutes)
const DefaultClassDuration = 60

// ClassDefinition is a kind of class offered by the gym
type ClassDefinition struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Instructor      string    `json:"instructor"`
	Duration        int       `json:"duration"` // minutes
	Capacity        int       `json:"capacity"`
	Icon            string    `json:"icon,omitempty"`
	BackgroundColor string    `json:"background_color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Normalize trims the free-text fields. Type is stored trimmed so credit
// matching sees the same value the admin typed.
func (c *ClassDefinition) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Type = strings.TrimSpace(c.Type)
	c.Instructor = strings.TrimSpace(c.Instructor)
}

// Validate validates the class definition
func (c *ClassDefinition) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Type) == "" {
		return ErrInvalidClass
	}
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// EffectiveDuration returns the duration in minutes, defaulting to 60
func (c *ClassDefinition) EffectiveDuration() time.Duration {
	return MinutesOrDefault(c.Duration)
}

// MinutesOrDefault converts minutes to a duration, using DefaultClassDuration when m <= 0
func MinutesOrDefault(m int) time.Duration {
	if m <= 0 {
		m = DefaultClassDuration
	}
	return time.Duration(m) * time.Minute
}
