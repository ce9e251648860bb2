package metrics

import (
	"context"
	"sync"

	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Booking counters
	BookingsAdmitted  *telemetry.Counter
	BookingsRejected  *telemetry.Counter
	BookingsCancelled *telemetry.Counter

	// Schedule counters
	SchedulesGenerated *telemetry.Counter

	// Outbox counters
	OutboxPublished   *telemetry.Counter
	OutboxFailed      *telemetry.Counter
	OutboxDeadLetters *telemetry.Counter

	// Notification counters
	NotificationsPushed *telemetry.Counter

	ErrorsTotal *telemetry.Counter

	// Histograms
	AdmissionDuration *telemetry.Histogram

	// Gauges
	InFlightAdmissions *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all booking metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	counters := []struct {
		target **telemetry.Counter
		opts   telemetry.MetricOpts
	}{
		{&BookingsAdmitted, telemetry.MetricOpts{Name: "gym_bookings_admitted_total", Description: "Total number of bookings admitted", Unit: "1"}},
		{&BookingsRejected, telemetry.MetricOpts{Name: "gym_bookings_rejected_total", Description: "Total number of rejected booking attempts by outcome", Unit: "1"}},
		{&BookingsCancelled, telemetry.MetricOpts{Name: "gym_bookings_cancelled_total", Description: "Total number of cancelled bookings", Unit: "1"}},
		{&SchedulesGenerated, telemetry.MetricOpts{Name: "gym_schedules_generated_total", Description: "Total number of schedules created by the generator", Unit: "1"}},
		{&OutboxPublished, telemetry.MetricOpts{Name: "gym_outbox_published_total", Description: "Total number of outbox messages relayed to Kafka", Unit: "1"}},
		{&OutboxFailed, telemetry.MetricOpts{Name: "gym_outbox_failed_total", Description: "Total number of failed outbox publish attempts", Unit: "1"}},
		{&OutboxDeadLetters, telemetry.MetricOpts{Name: "gym_outbox_dead_letters_total", Description: "Total number of outbox messages sent to the DLQ", Unit: "1"}},
		{&NotificationsPushed, telemetry.MetricOpts{Name: "gym_notifications_pushed_total", Description: "Total number of notifications published to user channels", Unit: "1"}},
		{&ErrorsTotal, telemetry.MetricOpts{Name: "gym_errors_total", Description: "Total number of errors by type and operation", Unit: "1"}},
	}
	for _, c := range counters {
		counter, err := telemetry.NewCounter(c.opts)
		if err != nil {
			return err
		}
		*c.target = counter
	}

	var err error
	AdmissionDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "gym_admission_duration_seconds",
		Description: "Duration of the booking admission transaction",
		Unit:        "s",
	}, []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5})
	if err != nil {
		return err
	}

	InFlightAdmissions, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "gym_admissions_in_flight",
		Description: "Number of admission transactions currently running",
		Unit:        "1",
	})
	return err
}

// RecordAdmission records the outcome and latency of one admission
func RecordAdmission(ctx context.Context, outcome, classType string, durationSeconds float64) {
	attrs := []attribute.KeyValue{
		attribute.String("outcome", outcome),
		attribute.String("class_type", classType),
	}
	if outcome == "SUCCESS" {
		if BookingsAdmitted != nil {
			BookingsAdmitted.Inc(ctx, attrs[1])
		}
	} else if BookingsRejected != nil {
		BookingsRejected.Inc(ctx, attrs...)
	}
	if AdmissionDuration != nil {
		AdmissionDuration.Record(ctx, durationSeconds, attrs[0])
	}
}

// AdmissionStarted tracks an admission entering the store
func AdmissionStarted(ctx context.Context) {
	if InFlightAdmissions != nil {
		InFlightAdmissions.Inc(ctx)
	}
}

// AdmissionFinished tracks an admission leaving the store
func AdmissionFinished(ctx context.Context) {
	if InFlightAdmissions != nil {
		InFlightAdmissions.Dec(ctx)
	}
}

// RecordCancellation records a cancelled booking
func RecordCancellation(ctx context.Context) {
	if BookingsCancelled != nil {
		BookingsCancelled.Inc(ctx)
	}
}

// RecordSchedulesGenerated records one generator run
func RecordSchedulesGenerated(ctx context.Context, generated, skipped int) {
	if SchedulesGenerated != nil {
		SchedulesGenerated.Add(ctx, int64(generated), attribute.String("result", "created"))
		SchedulesGenerated.Add(ctx, int64(skipped), attribute.String("result", "skipped"))
	}
}

// RecordOutboxPublished records a relayed outbox message
func RecordOutboxPublished(ctx context.Context, eventType string) {
	if OutboxPublished != nil {
		OutboxPublished.Inc(ctx, attribute.String("event_type", eventType))
	}
}

// RecordOutboxFailed records a failed publish attempt; deadLettered is true when
// the message was moved to the DLQ
func RecordOutboxFailed(ctx context.Context, eventType string, deadLettered bool) {
	if OutboxFailed != nil {
		OutboxFailed.Inc(ctx, attribute.String("event_type", eventType))
	}
	if deadLettered && OutboxDeadLetters != nil {
		OutboxDeadLetters.Inc(ctx, attribute.String("event_type", eventType))
	}
}

// RecordNotificationPushed records a notification delivered to a user channel
func RecordNotificationPushed(ctx context.Context, eventType string) {
	if NotificationsPushed != nil {
		NotificationsPushed.Inc(ctx, attribute.String("event_type", eventType))
	}
}

// RecordError records an error metric
func RecordError(ctx context.Context, errorType, operation string) {
	if ErrorsTotal != nil {
		ErrorsTotal.Inc(ctx,
			attribute.String("error_type", errorType),
			attribute.String("operation", operation),
		)
	}
}
