package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("user already booked this class")
	ErrClassFull       = errors.New("class is full")
	ErrInsertFailed    = errors.New("failed to insert booking")
	ErrCancelFailed    = errors.New("failed to cancel booking")
	ErrNotBookingOwner = errors.New("booking belongs to another user")

	// Schedule errors
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrScheduleAlreadyExists = errors.New("class is already scheduled at this time")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrInvalidScheduleTime   = errors.New("end time must be after start time")

	// Class errors
	ErrClassNotFound   = errors.New("class not found")
	ErrInvalidClass    = errors.New("class name and type are required")
	ErrInvalidCapacity = errors.New("capacity must be greater than zero")
	ErrInvalidDuration = errors.New("duration must be greater than zero")

	// Package errors
	ErrPackageNotFound        = errors.New("package not found")
	ErrPackageInactive        = errors.New("package is not active")
	ErrPackageAlreadyAcquired = errors.New("user already has a package for this month")
	ErrInvalidPackage         = errors.New("package name is required")
	ErrInvalidPackageItem     = errors.New("package item needs a class type and non-negative credits")

	// Credit errors
	ErrNoActivePackage     = errors.New("no active package for this month")
	ErrClassTypeNotCovered = errors.New("package does not cover this class type")
	ErrNoCreditsRemaining  = errors.New("no credits remaining for this class type")

	// Scheduling rule errors
	ErrRuleNotFound      = errors.New("scheduling rule not found")
	ErrRuleAlreadyExists = errors.New("scheduling rule already exists")
	ErrInvalidDayOfWeek  = errors.New("invalid day of week")
	ErrInvalidClockTime  = errors.New("time must be HH:MM")

	// Validation errors
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrInvalidBookingID  = errors.New("invalid booking id")
	ErrInvalidScheduleID = errors.New("invalid schedule id")
	ErrInvalidClassID    = errors.New("invalid class id")
	ErrInvalidPackageID  = errors.New("invalid package id")
)

// NewCancelError wraps cause together with ErrCancelFailed so callers can
// match either the generic failure or the specific reason.
func NewCancelError(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelFailed, cause)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrClassNotFound) ||
		errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrRuleNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidScheduleID) ||
		errors.Is(err, ErrInvalidClassID) ||
		errors.Is(err, ErrInvalidPackageID) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidScheduleTime) ||
		errors.Is(err, ErrInvalidClass) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidPackage) ||
		errors.Is(err, ErrInvalidPackageItem) ||
		errors.Is(err, ErrInvalidDayOfWeek) ||
		errors.Is(err, ErrInvalidClockTime)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyBooked) ||
		errors.Is(err, ErrClassFull) ||
		errors.Is(err, ErrScheduleAlreadyExists) ||
		errors.Is(err, ErrPackageAlreadyAcquired) ||
		errors.Is(err, ErrRuleAlreadyExists)
}

// IsForbiddenError checks if the error means the caller is not entitled to the action
func IsForbiddenError(err error) bool {
	return errors.Is(err, ErrNoActivePackage) ||
		errors.Is(err, ErrClassTypeNotCovered) ||
		errors.Is(err, ErrNoCreditsRemaining) ||
		errors.Is(err, ErrNotBookingOwner) ||
		errors.Is(err, ErrPackageInactive)
}
