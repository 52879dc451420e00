package domain

import "time"

// HolidayDayKey is the weekly-schedule day key substituted for the calendar
// weekday when a group applies its holiday schedule (0-6 are Sun-Sat).
const HolidayDayKey = 7

// WeeklyScheduleItem is one open window for one area on one day key.
// Times are minutes from midnight, half-open [StartMin, EndMin).
type WeeklyScheduleItem struct {
	AreaID    int64
	DayOfWeek int
	StartMin  int
	EndMin    int
}

// WeeklyScheduleGroup is a versioned weekly timetable. Only the group with
// the greatest EffectiveFrom not after the target date is active.
type WeeklyScheduleGroup struct {
	ID             int64
	VenueID        int64
	EffectiveFrom  time.Time
	ApplyOnHoliday bool
	Items          []WeeklyScheduleItem
}

type ClosedRuleKind string

const (
	ClosedRuleWeekly         ClosedRuleKind = "weekly"
	ClosedRuleMonthlyDate    ClosedRuleKind = "monthly_date"
	ClosedRuleMonthlyNthWeek ClosedRuleKind = "monthly_nth_week"
)

// LastDayOfMonth is the sentinel DayOfMonth meaning "last day of the month".
const LastDayOfMonth = 99

// ClosedDayRule marks recurring closed days. Which fields are meaningful
// depends on Kind: weekly uses DayOfWeek, monthly_date uses DayOfMonth,
// monthly_nth_week uses WeekOfMonth and DayOfWeek.
type ClosedDayRule struct {
	Kind        ClosedRuleKind
	DayOfWeek   int
	DayOfMonth  int
	WeekOfMonth int
}

// ClosedDayGroup is a versioned set of closed-day rules, selected by the same
// latest-applicable rule as WeeklyScheduleGroup.
type ClosedDayGroup struct {
	ID            int64
	VenueID       int64
	EffectiveFrom time.Time
	Rules         []ClosedDayRule
}

type SpecialDayType string

const (
	SpecialDayBusiness SpecialDayType = "business"
	SpecialDayClosed   SpecialDayType = "closed"
)

// SpecialDaySchedule is one open window for one area on a business special day.
type SpecialDaySchedule struct {
	AreaID   int64
	StartMin int
	EndMin   int
}

// SpecialDay overrides every other rule source for its date. At most one
// exists per venue and date.
type SpecialDay struct {
	ID        int64
	VenueID   int64
	Date      time.Time
	Type      SpecialDayType
	Reason    string
	Schedules []SpecialDaySchedule
}

type DayStatus string

const (
	DayOpen   DayStatus = "open"
	DayClosed DayStatus = "closed"
)

type AppliedRuleKind string

const (
	RuleSpecialDay     AppliedRuleKind = "special_day"
	RuleClosedDay      AppliedRuleKind = "closed_day"
	RuleWeeklySchedule AppliedRuleKind = "weekly_schedule"
	RuleNone           AppliedRuleKind = "none"
)

// AreaSpan is an open window for one area, minutes from midnight, half-open.
type AreaSpan struct {
	AreaID   int64
	StartMin int
	EndMin   int
}

// SeatSpan is an area span expanded to a single seat.
type SeatSpan struct {
	SeatID   int64
	StartMin int
	EndMin   int
}

// DayOutcome is the resolved status of one venue day. Derived, never stored.
// At most one rule kind applies; a special day fully determines the outcome.
type DayOutcome struct {
	Date            time.Time
	IsHoliday       bool
	Status          DayStatus
	AppliedRuleKind AppliedRuleKind
	AppliedRuleID   int64
	AreaSpans       []AreaSpan
	SeatSpans       []SeatSpan
}
