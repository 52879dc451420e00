package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/1221221212/reservation-for-justin-sub000/internal/bitmap"
	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
	"github.com/1221221212/reservation-for-justin-sub000/internal/metrics"
	"github.com/1221221212/reservation-for-justin-sub000/internal/slot"
)

// ReservationReader reads the booked seat lines availability must subtract.
type ReservationReader interface {
	ListBookedLines(ctx context.Context, venueID int64, date time.Time) ([]domain.SeatLine, error)
}

// AvailabilityService turns resolved day outcomes plus existing bookings into
// per-seat slot bitmaps and compresses them back to spans.
type AvailabilityService struct {
	schedule     *ScheduleService
	reservations ReservationReader
	metrics      *metrics.Metrics
}

func NewAvailabilityService(schedule *ScheduleService, reservations ReservationReader, m *metrics.Metrics) *AvailabilityService {
	return &AvailabilityService{schedule: schedule, reservations: reservations, metrics: m}
}

// BuildMatrixForDate returns a bitmap per seat, true meaning bookable. A
// closed day yields an empty map.
func (s *AvailabilityService) BuildMatrixForDate(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) (map[int64][]bool, error) {
	if gridUnit <= 0 {
		return nil, domain.ErrInvalidGridUnit
	}
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.AvailabilityBuildDuration.Observe(time.Since(start).Seconds())
		}
	}()

	outcome, err := s.schedule.ResolveDate(ctx, venueID, date)
	if err != nil {
		return nil, err
	}
	return s.buildMatrix(ctx, venueID, outcome, gridUnit, bufferSlots)
}

func (s *AvailabilityService) buildMatrix(ctx context.Context, venueID int64, outcome domain.DayOutcome, gridUnit, bufferSlots int) (map[int64][]bool, error) {
	matrix := map[int64][]bool{}
	if outcome.Status == domain.DayClosed {
		return matrix, nil
	}

	total := slot.SlotsPerDay(gridUnit)
	for _, span := range outcome.SeatSpans {
		// Conservative conversion: a partially covered edge slot is not
		// offered as open.
		openStart := slot.CeilSlot(span.StartMin, gridUnit)
		openEnd := slot.FloorSlot(span.EndMin, gridUnit)
		bm, ok := matrix[span.SeatID]
		if !ok {
			bm = bitmap.BuildInitial(openStart, openEnd, total)
			matrix[span.SeatID] = bm
			continue
		}
		bitmap.MarkOpen(bm, openStart, openEnd)
	}

	lines, err := s.reservations.ListBookedLines(ctx, venueID, outcome.Date)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}
	for _, line := range lines {
		bm, ok := matrix[line.SeatID]
		if !ok {
			continue
		}
		// Conservative the other way: a partially covered edge slot is
		// blocked.
		resStart := slot.FloorSlot(line.StartMin, gridUnit)
		resEnd := slot.CeilSlot(line.EndMin, gridUnit)
		bitmap.ApplyReservation(bm, resStart, resEnd, bufferSlots)
	}

	return matrix, nil
}

// SeatSpanTimes is one open window rendered as clock times.
type SeatSpanTimes struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SeatAvailability lists the open windows of one seat.
type SeatAvailability struct {
	SeatID int64           `json:"seat_id"`
	Spans  []SeatSpanTimes `json:"spans"`
}

// SeatFirstAvailability compresses the matrix to seat-ordered spans with
// clock times.
func (s *AvailabilityService) SeatFirstAvailability(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) ([]SeatAvailability, error) {
	matrix, err := s.BuildMatrixForDate(ctx, venueID, date, gridUnit, bufferSlots)
	if err != nil {
		return nil, err
	}

	seatIDs := make([]int64, 0, len(matrix))
	for seatID := range matrix {
		seatIDs = append(seatIDs, seatID)
	}
	sort.Slice(seatIDs, func(i, j int) bool { return seatIDs[i] < seatIDs[j] })

	result := make([]SeatAvailability, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		sa := SeatAvailability{SeatID: seatID}
		for _, span := range bitmap.ToSpans(matrix[seatID]) {
			sa.Spans = append(sa.Spans, SeatSpanTimes{
				Start: slot.SlotToTime(span.Start, gridUnit),
				End:   slot.SlotToTime(span.End, gridUnit),
			})
		}
		result = append(result, sa)
	}
	return result, nil
}

type CalendarStatus string

const (
	CalendarClosed    CalendarStatus = "closed"
	CalendarAvailable CalendarStatus = "available"
	CalendarFull      CalendarStatus = "full"
)

// CalendarDay summarizes one day of the month calendar.
type CalendarDay struct {
	Date   string         `json:"date"`
	Status CalendarStatus `json:"status"`
}

// MonthlyCalendar classifies each day of the month: closed, available when at
// least one compressed span can hold a standard slot, full otherwise.
func (s *AvailabilityService) MonthlyCalendar(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, bufferSlots, standardSlotMin int) ([]CalendarDay, error) {
	if gridUnit <= 0 {
		return nil, domain.ErrInvalidGridUnit
	}

	outcomes, err := s.schedule.ResolveMonth(ctx, venueID, year, month)
	if err != nil {
		return nil, err
	}

	days := make([]CalendarDay, 0, len(outcomes))
	for _, outcome := range outcomes {
		day := CalendarDay{Date: outcome.Date.Format(dateKey), Status: CalendarClosed}
		if outcome.Status == domain.DayOpen {
			matrix, err := s.buildMatrix(ctx, venueID, outcome, gridUnit, bufferSlots)
			if err != nil {
				return nil, err
			}
			day.Status = summarizeDay(matrix, gridUnit, standardSlotMin)
		}
		days = append(days, day)
	}
	return days, nil
}

func summarizeDay(matrix map[int64][]bool, gridUnit, standardSlotMin int) CalendarStatus {
	needed := slot.CeilSlot(standardSlotMin, gridUnit)
	if needed < 1 {
		needed = 1
	}
	for _, bm := range matrix {
		for _, span := range bitmap.ToSpans(bm) {
			if span.End-span.Start >= needed {
				return CalendarAvailable
			}
		}
	}
	return CalendarFull
}
