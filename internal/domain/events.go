package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics
const (
	TopicBookingEvents  = "booking-events"
	TopicScheduleEvents = "schedule-events"
)

// Aggregate types written to the outbox
const (
	AggregateBooking  = "booking"
	AggregateSchedule = "schedule"
)

// BookingEventType represents the type of booking event
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCancelled BookingEventType = "booking.cancelled"
)

// EventTypeScheduleGenerated is emitted once per generator run that created schedules
const EventTypeScheduleGenerated = "schedule.generated"

// BookingEvent announces a booking lifecycle change
type BookingEvent struct {
	EventID     string           `json:"event_id"`
	EventType   BookingEventType `json:"event_type"`
	BookingID   string           `json:"booking_id"`
	UserID      string           `json:"user_id"`
	ScheduleID  string           `json:"schedule_id"`
	ClassID     string           `json:"class_id"`
	ClassName   string           `json:"class_name"`
	ClassType   string           `json:"class_type"`
	StartTime   time.Time        `json:"start_time"`
	BookingDate string           `json:"booking_date"` // YYYY-MM-DD
	OccurredAt  time.Time        `json:"occurred_at"`
}

// NewBookingEvent builds an event for booking on schedule s
func NewBookingEvent(eventType BookingEventType, booking *Booking, s *ScheduleWithClass) *BookingEvent {
	e := &BookingEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		ScheduleID:  booking.ScheduleID,
		BookingDate: booking.BookingDate.Format(time.DateOnly),
		OccurredAt:  time.Now().UTC(),
	}
	if s != nil {
		e.ClassID = s.ClassID
		e.ClassName = s.Class.Name
		e.ClassType = s.Class.Type
		e.StartTime = s.StartTime
	}
	return e
}

// BookingOutboxEvent wraps a booking event into an outbox message keyed by user,
// so one member's events stay ordered on a single partition.
func BookingOutboxEvent(topic string, event *BookingEvent) (*OutboxMessage, error) {
	if topic == "" {
		topic = TopicBookingEvents
	}
	msg, err := NewOutboxMessage(AggregateBooking, event.BookingID, string(event.EventType), topic, event.UserID, event)
	if err != nil {
		return nil, err
	}
	msg.ID = event.EventID
	return msg, nil
}

// ScheduleGeneratedEvent summarizes one generator run
type ScheduleGeneratedEvent struct {
	EventID    string    `json:"event_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Generated  int       `json:"generated"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ScheduleGeneratedOutboxEvent wraps a generator summary into an outbox message
func ScheduleGeneratedOutboxEvent(topic string, event *ScheduleGeneratedEvent) (*OutboxMessage, error) {
	if topic == "" {
		topic = TopicScheduleEvents
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	key := event.From + ".." + event.To
	msg, err := NewOutboxMessage(AggregateSchedule, key, EventTypeScheduleGenerated, topic, key, event)
	if err != nil {
		return nil, err
	}
	msg.ID = event.EventID
	return msg, nil
}
