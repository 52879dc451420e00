package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1221221212/reservation-for-justin-sub000/internal/app"
	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

type stubScheduleResolver struct {
	outcomes []domain.DayOutcome
	err      error
}

func (s *stubScheduleResolver) ResolveMonth(ctx context.Context, venueID int64, year int, month time.Month) ([]domain.DayOutcome, error) {
	return s.outcomes, s.err
}

type stubAvailability struct {
	seats    []app.SeatAvailability
	days     []app.CalendarDay
	err      error
	gotGrid  int
	gotBuf   int
	gotStd   int
	gotDate  time.Time
	gotVenue int64
}

func (s *stubAvailability) SeatFirstAvailability(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) ([]app.SeatAvailability, error) {
	s.gotVenue, s.gotDate, s.gotGrid, s.gotBuf = venueID, date, gridUnit, bufferSlots
	return s.seats, s.err
}

func (s *stubAvailability) MonthlyCalendar(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, bufferSlots, standardSlotMin int) ([]app.CalendarDay, error) {
	s.gotVenue, s.gotGrid, s.gotBuf, s.gotStd = venueID, gridUnit, bufferSlots, standardSlotMin
	return s.days, s.err
}

var testDefaults = QueryDefaults{GridUnitMinutes: 30, BufferSlots: 0, StandardSlotMinutes: 60}

func doVenues(t *testing.T, schedule ScheduleResolver, availability AvailabilityProvider, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	HandleVenues(schedule, availability, testDefaults)(rec, req)
	return rec
}

func TestVenuesScheduleOK(t *testing.T) {
	resolver := &stubScheduleResolver{outcomes: []domain.DayOutcome{
		{
			Date:            time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			Status:          domain.DayOpen,
			AppliedRuleKind: domain.RuleWeeklySchedule,
			AppliedRuleID:   3,
			AreaSpans:       []domain.AreaSpan{{AreaID: 10, StartMin: 600, EndMin: 1320}},
			SeatSpans:       []domain.SeatSpan{{SeatID: 101, StartMin: 600, EndMin: 1320}},
		},
		{
			Date:            time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
			Status:          domain.DayClosed,
			AppliedRuleKind: domain.RuleClosedDay,
			AppliedRuleID:   9,
		},
	}}

	rec := doVenues(t, resolver, &stubAvailability{}, http.MethodGet, "/venues/1/schedule?year=2025&month=6")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "2025-06-01", body[0]["date"])
	assert.Equal(t, "open", body[0]["status"])
	assert.Equal(t, "weekly_schedule", body[0]["applied_rule_kind"])
	spans := body[0]["area_spans"].([]any)
	first := spans[0].(map[string]any)
	assert.Equal(t, "10:00", first["start"])
	assert.Equal(t, "22:00", first["end"])
	assert.Equal(t, "closed", body[1]["status"])
	assert.NotContains(t, body[1], "area_spans")
}

func TestVenuesScheduleRequiresYearMonth(t *testing.T) {
	rec := doVenues(t, &stubScheduleResolver{}, &stubAvailability{}, http.MethodGet, "/venues/1/schedule?year=2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doVenues(t, &stubScheduleResolver{}, &stubAvailability{}, http.MethodGet, "/venues/1/schedule?year=2025&month=13")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVenuesScheduleVenueNotFound(t *testing.T) {
	resolver := &stubScheduleResolver{err: domain.ErrVenueNotFound}
	rec := doVenues(t, resolver, &stubAvailability{}, http.MethodGet, "/venues/42/schedule?year=2025&month=6")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "venue_not_found", body["code"])
}

func TestVenuesAvailabilityOK(t *testing.T) {
	availability := &stubAvailability{seats: []app.SeatAvailability{
		{SeatID: 101, Spans: []app.SeatSpanTimes{{Start: "10:00", End: "12:00"}}},
	}}

	rec := doVenues(t, &stubScheduleResolver{}, availability, http.MethodGet,
		"/venues/1/availability?date=2025-06-04&grid=60&buffer=1")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, int64(1), availability.gotVenue)
	assert.Equal(t, time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC), availability.gotDate)
	assert.Equal(t, 60, availability.gotGrid)
	assert.Equal(t, 1, availability.gotBuf)

	var body []app.SeatAvailability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, int64(101), body[0].SeatID)
}

func TestVenuesAvailabilityDefaultsApplied(t *testing.T) {
	availability := &stubAvailability{}
	rec := doVenues(t, &stubScheduleResolver{}, availability, http.MethodGet, "/venues/1/availability?date=2025-06-04")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testDefaults.GridUnitMinutes, availability.gotGrid)
	assert.Equal(t, testDefaults.BufferSlots, availability.gotBuf)
}

func TestVenuesAvailabilityBadDate(t *testing.T) {
	rec := doVenues(t, &stubScheduleResolver{}, &stubAvailability{}, http.MethodGet, "/venues/1/availability?date=June-4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVenuesCalendarOK(t *testing.T) {
	availability := &stubAvailability{days: []app.CalendarDay{
		{Date: "2025-06-01", Status: app.CalendarAvailable},
		{Date: "2025-06-02", Status: app.CalendarClosed},
	}}

	rec := doVenues(t, &stubScheduleResolver{}, availability, http.MethodGet,
		"/venues/1/calendar?year=2025&month=6&standard=90")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, availability.gotStd)

	var body []app.CalendarDay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, app.CalendarAvailable, body[0].Status)
}

func TestVenuesRouting(t *testing.T) {
	cases := []struct {
		target string
		status int
	}{
		{"/venues/1/unknown", http.StatusNotFound},
		{"/venues/abc/schedule", http.StatusNotFound},
		{"/venues/0/schedule", http.StatusNotFound},
		{"/venues/1/schedule/extra", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := doVenues(t, &stubScheduleResolver{}, &stubAvailability{}, http.MethodGet, tc.target)
		assert.Equal(t, tc.status, rec.Code, tc.target)
	}
}

func TestVenuesMethodNotAllowed(t *testing.T) {
	rec := doVenues(t, &stubScheduleResolver{}, &stubAvailability{}, http.MethodPost, "/venues/1/schedule?year=2025&month=6")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
