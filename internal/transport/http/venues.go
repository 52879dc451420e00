package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/1221221212/reservation-for-justin-sub000/internal/app"
	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
	"github.com/1221221212/reservation-for-justin-sub000/internal/slot"
)

// ScheduleResolver resolves one month of day outcomes.
type ScheduleResolver interface {
	ResolveMonth(ctx context.Context, venueID int64, year int, month time.Month) ([]domain.DayOutcome, error)
}

// AvailabilityProvider serves the seat-first availability and the month
// calendar summary, optionally through the cache layer.
type AvailabilityProvider interface {
	SeatFirstAvailability(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) ([]app.SeatAvailability, error)
	MonthlyCalendar(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, bufferSlots, standardSlotMin int) ([]app.CalendarDay, error)
}

// QueryDefaults fills grid, buffer and standard-slot parameters the caller
// leaves out.
type QueryDefaults struct {
	GridUnitMinutes     int
	BufferSlots         int
	StandardSlotMinutes int
}

// HandleVenues dispatches /venues/{id}/schedule, /venues/{id}/calendar and
// /venues/{id}/availability.
func HandleVenues(schedule ScheduleResolver, availability AvailabilityProvider, defaults QueryDefaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		venueID, resource, ok := parseVenuePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "route not found")
			return
		}

		switch resource {
		case "schedule":
			serveSchedule(w, r, schedule, venueID)
		case "calendar":
			serveCalendar(w, r, availability, venueID, defaults)
		case "availability":
			serveAvailability(w, r, availability, venueID, defaults)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "route not found")
		}
	}
}

// parseVenuePath splits "/venues/{id}/{resource}".
func parseVenuePath(path string) (int64, string, bool) {
	rest, ok := strings.CutPrefix(path, "/venues/")
	if !ok {
		return 0, "", false
	}
	idPart, resource, ok := strings.Cut(rest, "/")
	if !ok || resource == "" || strings.Contains(resource, "/") {
		return 0, "", false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, resource, true
}

type dayOutcomeResponse struct {
	Date            string             `json:"date"`
	IsHoliday       bool               `json:"is_holiday"`
	Status          string             `json:"status"`
	AppliedRuleKind string             `json:"applied_rule_kind"`
	AppliedRuleID   int64              `json:"applied_rule_id,omitempty"`
	AreaSpans       []areaSpanResponse `json:"area_spans,omitempty"`
	SeatSpans       []seatSpanResponse `json:"seat_spans,omitempty"`
}

type areaSpanResponse struct {
	AreaID int64  `json:"area_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type seatSpanResponse struct {
	SeatID int64  `json:"seat_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

func serveSchedule(w http.ResponseWriter, r *http.Request, schedule ScheduleResolver, venueID int64) {
	year, month, ok := parseYearMonth(r)
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "year and month query parameters are required")
		return
	}

	outcomes, err := schedule.ResolveMonth(r.Context(), venueID, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]dayOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		day := dayOutcomeResponse{
			Date:            o.Date.Format("2006-01-02"),
			IsHoliday:       o.IsHoliday,
			Status:          string(o.Status),
			AppliedRuleKind: string(o.AppliedRuleKind),
			AppliedRuleID:   o.AppliedRuleID,
		}
		for _, span := range o.AreaSpans {
			day.AreaSpans = append(day.AreaSpans, areaSpanResponse{
				AreaID: span.AreaID,
				Start:  slot.FormatTime(span.StartMin),
				End:    slot.FormatTime(span.EndMin),
			})
		}
		for _, span := range o.SeatSpans {
			day.SeatSpans = append(day.SeatSpans, seatSpanResponse{
				SeatID: span.SeatID,
				Start:  slot.FormatTime(span.StartMin),
				End:    slot.FormatTime(span.EndMin),
			})
		}
		resp = append(resp, day)
	}
	writeJSON(w, http.StatusOK, resp)
}

func serveCalendar(w http.ResponseWriter, r *http.Request, availability AvailabilityProvider, venueID int64, defaults QueryDefaults) {
	year, month, ok := parseYearMonth(r)
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "year and month query parameters are required")
		return
	}
	gridUnit := intQuery(r, "grid", defaults.GridUnitMinutes)
	bufferSlots := intQuery(r, "buffer", defaults.BufferSlots)
	standardSlotMin := intQuery(r, "standard", defaults.StandardSlotMinutes)

	days, err := availability.MonthlyCalendar(r.Context(), venueID, year, month, gridUnit, bufferSlots, standardSlotMin)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func serveAvailability(w http.ResponseWriter, r *http.Request, availability AvailabilityProvider, venueID int64, defaults QueryDefaults) {
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "date query parameter must be YYYY-MM-DD")
		return
	}
	gridUnit := intQuery(r, "grid", defaults.GridUnitMinutes)
	bufferSlots := intQuery(r, "buffer", defaults.BufferSlots)

	seats, err := availability.SeatFirstAvailability(r.Context(), venueID, date, gridUnit, bufferSlots)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

func parseYearMonth(r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
