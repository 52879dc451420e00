// Package slot converts between clock times and discrete slot indices for a
// configurable grid unit (15/30/60 minute style grids).
package slot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

const minutesPerDay = 24 * 60

// ParseTime parses "HH:MM" into minutes from midnight.
func ParseTime(hhmm string) (int, error) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimeRange, hhmm)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimeRange, hhmm)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimeRange, hhmm)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || hour*60+minute > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimeRange, hhmm)
	}
	return hour*60 + minute, nil
}

// FormatTime renders minutes from midnight as zero-padded "HH:MM".
func FormatTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeToSlot converts "HH:MM" to a slot index: floor((h*60+m)/gridUnit).
func TimeToSlot(hhmm string, gridUnit int) (int, error) {
	if gridUnit <= 0 {
		return 0, domain.ErrInvalidGridUnit
	}
	minutes, err := ParseTime(hhmm)
	if err != nil {
		return 0, err
	}
	return minutes / gridUnit, nil
}

// SlotToTime is the inverse of TimeToSlot for slot boundaries.
func SlotToTime(slot, gridUnit int) string {
	return FormatTime(slot * gridUnit)
}

// SlotsPerDay returns ceil(1440/gridUnit).
func SlotsPerDay(gridUnit int) int {
	return (minutesPerDay + gridUnit - 1) / gridUnit
}

// FloorSlot maps minutes from midnight to the slot containing them.
func FloorSlot(minutes, gridUnit int) int {
	return minutes / gridUnit
}

// CeilSlot maps minutes from midnight to the first slot boundary at or after
// them. Used for conservative conversion of unaligned window ends.
func CeilSlot(minutes, gridUnit int) int {
	return (minutes + gridUnit - 1) / gridUnit
}
