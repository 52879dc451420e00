package domain

// Venue is a dining venue whose schedules and seats this service manages.
type Venue struct {
	ID   int64
	Name string
}

// Area is a named zone grouping one or more seats. Schedules are authored per
// area and expanded to seats through the area-seat map.
type Area struct {
	ID      int64
	VenueID int64
	Name    string
}

// Seat is a bookable unit (table, counter seat, private room).
type Seat struct {
	ID       int64
	VenueID  int64
	Name     string
	Capacity int
}

// AreaSeatMap maps an area id to the seat ids it contains.
type AreaSeatMap map[int64][]int64
