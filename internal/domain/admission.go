package domain

import "time"

// AdmissionOutcome is the result code of one booking attempt
type AdmissionOutcome string

const (
	OutcomeSuccess             AdmissionOutcome = "SUCCESS"
	OutcomeAlreadyBooked       AdmissionOutcome = "ALREADY_BOOKED"
	OutcomeClassFull           AdmissionOutcome = "CLASS_FULL"
	OutcomeScheduleNotFound    AdmissionOutcome = "SCHEDULE_NOT_FOUND"
	OutcomeInsertFailed        AdmissionOutcome = "ERROR_INSERT_FAILED"
	OutcomeNoActivePackage     AdmissionOutcome = "NO_ACTIVE_PACKAGE"
	OutcomeClassTypeNotCovered AdmissionOutcome = "CLASS_TYPE_NOT_COVERED"
	OutcomeNoCredits           AdmissionOutcome = "NO_CREDITS"
)

// String returns the string representation of AdmissionOutcome
func (o AdmissionOutcome) String() string {
	return string(o)
}

// Err maps the outcome to its domain error. SUCCESS maps to nil.
func (o AdmissionOutcome) Err() error {
	switch o {
	case OutcomeSuccess:
		return nil
	case OutcomeAlreadyBooked:
		return ErrAlreadyBooked
	case OutcomeClassFull:
		return ErrClassFull
	case OutcomeScheduleNotFound:
		return ErrScheduleNotFound
	case OutcomeNoActivePackage:
		return ErrNoActivePackage
	case OutcomeClassTypeNotCovered:
		return ErrClassTypeNotCovered
	case OutcomeNoCredits:
		return ErrNoCreditsRemaining
	default:
		return ErrInsertFailed
	}
}

func creditOutcome(err error) AdmissionOutcome {
	switch err {
	case nil:
		return OutcomeSuccess
	case ErrNoActivePackage:
		return OutcomeNoActivePackage
	case ErrClassTypeNotCovered:
		return OutcomeClassTypeNotCovered
	default:
		return OutcomeNoCredits
	}
}

// AdmissionRequest asks for one seat of ScheduleID for UserID
type AdmissionRequest struct {
	BookingID      string
	UserID         string
	ScheduleID     string
	EnforceCredits bool
	// Location is the gym time zone used for booking_date and the credit month
	Location *time.Location
}

// AdmissionSnapshot is the state read under the schedule lock
type AdmissionSnapshot struct {
	ScheduleFound bool
	AlreadyBooked bool
	BookedCount   int
	Capacity      int

	EnforceCredits bool
	ClassType      string
	Month          string
	// Package is nil when the user has no package for Month
	Package     *UserPackage
	BookedTypes []string
}

// DecideAdmission applies the admission checks in order: schedule exists,
// not already booked, seat available, credits cover the class. Every store
// implementation calls it with a snapshot taken under its own lock.
func DecideAdmission(s AdmissionSnapshot) AdmissionOutcome {
	if !s.ScheduleFound {
		return OutcomeScheduleNotFound
	}
	if s.AlreadyBooked {
		return OutcomeAlreadyBooked
	}
	if s.BookedCount >= s.Capacity {
		return OutcomeClassFull
	}
	if s.EnforceCredits {
		summary := NewCreditSummary(s.Month, s.Package, s.BookedTypes)
		return creditOutcome(summary.Check(s.ClassType))
	}
	return OutcomeSuccess
}

// AdmissionResult is returned by the admission store
type AdmissionResult struct {
	Outcome AdmissionOutcome
	// Booking is set on SUCCESS
	Booking *Booking
}
