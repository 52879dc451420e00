package domain

import (
	"errors"
	"fmt"
)

var (
	ErrVenueNotFound         = errors.New("venue not found")
	ErrDayOutcomeNotFound    = errors.New("day outcome not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrNoActiveScheduleGroup = errors.New("no active schedule group")
	ErrSeatConflict          = errors.New("seat already booked for requested window")
	ErrLockTimeout           = errors.New("timed out acquiring booking lock")
	ErrInvalidTimeRange      = errors.New("invalid time range")
	ErrInvalidPartySize      = errors.New("invalid party size")
	ErrNoSeatsRequested      = errors.New("no seats requested")
	ErrInvalidGridUnit       = errors.New("invalid grid unit")
)

// SeatConflictError reports which seat and window collided with an existing
// booking. It matches ErrSeatConflict under errors.Is.
type SeatConflictError struct {
	SeatID   int64
	StartMin int
	EndMin   int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %d already booked between %02d:%02d and %02d:%02d",
		e.SeatID, e.StartMin/60, e.StartMin%60, e.EndMin/60, e.EndMin%60)
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}
