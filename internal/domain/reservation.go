package domain

import "time"

type ReservationStatus string

const (
	ReservationBooked    ReservationStatus = "booked"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a confirmed booking header. Code is assigned after insert
// because it embeds the storage-assigned id.
type Reservation struct {
	ID        int64
	VenueID   int64
	CourseID  *int64
	PartySize int
	Name      string
	Phone     string
	Email     string
	Code      string
	Status    ReservationStatus
	CreatedAt time.Time
}

// SeatLine pins one seat for one reservation on one date. All lines of a
// reservation share the same date and window. Times are minutes from
// midnight, half-open [StartMin, EndMin).
type SeatLine struct {
	ReservationID int64
	SeatID        int64
	Date          time.Time
	StartMin      int
	EndMin        int
}

// Overlaps reports whether the line's window intersects [startMin, endMin).
func (l SeatLine) Overlaps(startMin, endMin int) bool {
	return l.StartMin < endMin && l.EndMin > startMin
}
