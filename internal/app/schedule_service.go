package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

// ScheduleRepository reads the versioned rule sources and the holiday set.
type ScheduleRepository interface {
	ListWeeklyGroups(ctx context.Context, venueID int64) ([]domain.WeeklyScheduleGroup, error)
	ListClosedGroups(ctx context.Context, venueID int64) ([]domain.ClosedDayGroup, error)
	ListSpecialDays(ctx context.Context, venueID int64, from, to time.Time) (map[string]domain.SpecialDay, error)
	ListHolidays(ctx context.Context, from, to time.Time) (map[string]bool, error)
}

// VenueRepository provides venue existence checks and the area-seat map.
type VenueRepository interface {
	GetVenue(ctx context.Context, id int64) (domain.Venue, error)
	AreaSeatMap(ctx context.Context, venueID int64) (domain.AreaSeatMap, error)
}

// ScheduleService resolves whether a venue is open on each day of a month
// and which spans apply, merging special days, closed-day rules and weekly
// schedules under fixed precedence.
type ScheduleService struct {
	schedules ScheduleRepository
	venues    VenueRepository
}

func NewScheduleService(schedules ScheduleRepository, venues VenueRepository) *ScheduleService {
	return &ScheduleService{schedules: schedules, venues: venues}
}

const dateKey = "2006-01-02"

// ResolveMonth returns one DayOutcome per calendar day of the month.
func (s *ScheduleService) ResolveMonth(ctx context.Context, venueID int64, year int, month time.Month) ([]domain.DayOutcome, error) {
	if _, err := s.venues.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	holidays, err := s.schedules.ListHolidays(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("resolve month: %w", err)
	}
	specials, err := s.schedules.ListSpecialDays(ctx, venueID, first, last)
	if err != nil {
		return nil, fmt.Errorf("resolve month: %w", err)
	}
	closedGroups, err := s.schedules.ListClosedGroups(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("resolve month: %w", err)
	}
	weeklyGroups, err := s.schedules.ListWeeklyGroups(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("resolve month: %w", err)
	}
	seatMap, err := s.venues.AreaSeatMap(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("resolve month: %w", err)
	}

	outcomes := make([]domain.DayOutcome, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		isHoliday := holidays[d.Format(dateKey)]
		outcome := resolveDay(d, isHoliday, specials[d.Format(dateKey)], closedGroups, weeklyGroups, seatMap)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// ResolveDate returns the single DayOutcome for one date.
func (s *ScheduleService) ResolveDate(ctx context.Context, venueID int64, date time.Time) (domain.DayOutcome, error) {
	outcomes, err := s.ResolveMonth(ctx, venueID, date.Year(), date.Month())
	if err != nil {
		return domain.DayOutcome{}, err
	}
	for _, o := range outcomes {
		if o.Date.Day() == date.Day() {
			return o, nil
		}
	}
	return domain.DayOutcome{}, domain.ErrDayOutcomeNotFound
}

// resolveDay applies the fixed precedence special day > closed day > weekly
// schedule. Exactly one rule kind decides the outcome.
func resolveDay(
	d time.Time,
	isHoliday bool,
	special domain.SpecialDay,
	closedGroups []domain.ClosedDayGroup,
	weeklyGroups []domain.WeeklyScheduleGroup,
	seatMap domain.AreaSeatMap,
) domain.DayOutcome {
	outcome := domain.DayOutcome{
		Date:            d,
		IsHoliday:       isHoliday,
		Status:          domain.DayClosed,
		AppliedRuleKind: domain.RuleNone,
	}

	if special.ID != 0 {
		outcome.AppliedRuleKind = domain.RuleSpecialDay
		outcome.AppliedRuleID = special.ID
		if special.Type == domain.SpecialDayBusiness {
			outcome.Status = domain.DayOpen
			for _, sched := range special.Schedules {
				outcome.AreaSpans = append(outcome.AreaSpans, domain.AreaSpan{
					AreaID:   sched.AreaID,
					StartMin: sched.StartMin,
					EndMin:   sched.EndMin,
				})
			}
			outcome.SeatSpans = expandToSeats(outcome.AreaSpans, seatMap)
		}
		return outcome
	}

	if group, ok := latestClosedGroup(closedGroups, d); ok {
		for _, rule := range group.Rules {
			if closedRuleMatches(rule, d) {
				outcome.AppliedRuleKind = domain.RuleClosedDay
				outcome.AppliedRuleID = group.ID
				return outcome
			}
		}
	}

	group, ok := latestWeeklyGroup(weeklyGroups, d)
	if !ok {
		return outcome
	}
	dayKey := int(d.Weekday())
	if isHoliday && group.ApplyOnHoliday {
		dayKey = domain.HolidayDayKey
	}
	for _, item := range group.Items {
		if item.DayOfWeek == dayKey {
			outcome.AreaSpans = append(outcome.AreaSpans, domain.AreaSpan{
				AreaID:   item.AreaID,
				StartMin: item.StartMin,
				EndMin:   item.EndMin,
			})
		}
	}
	if len(outcome.AreaSpans) == 0 {
		return outcome
	}
	outcome.Status = domain.DayOpen
	outcome.AppliedRuleKind = domain.RuleWeeklySchedule
	outcome.AppliedRuleID = group.ID
	outcome.SeatSpans = expandToSeats(outcome.AreaSpans, seatMap)
	return outcome
}

// closedRuleMatches implements the three recurring closed-day rule kinds.
func closedRuleMatches(rule domain.ClosedDayRule, d time.Time) bool {
	switch rule.Kind {
	case domain.ClosedRuleWeekly:
		return rule.DayOfWeek == int(d.Weekday())
	case domain.ClosedRuleMonthlyDate:
		if rule.DayOfMonth == domain.LastDayOfMonth {
			return d.AddDate(0, 0, 1).Day() == 1
		}
		return rule.DayOfMonth == d.Day()
	case domain.ClosedRuleMonthlyNthWeek:
		weekOfMonth := (d.Day() + 6) / 7
		return weekOfMonth == rule.WeekOfMonth && rule.DayOfWeek == int(d.Weekday())
	default:
		return false
	}
}

// Groups are sorted ascending by effective date; the active one is the last
// whose effective date is not after d.
func latestClosedGroup(groups []domain.ClosedDayGroup, d time.Time) (domain.ClosedDayGroup, bool) {
	for i := len(groups) - 1; i >= 0; i-- {
		if !groups[i].EffectiveFrom.After(d) {
			return groups[i], true
		}
	}
	return domain.ClosedDayGroup{}, false
}

func latestWeeklyGroup(groups []domain.WeeklyScheduleGroup, d time.Time) (domain.WeeklyScheduleGroup, bool) {
	for i := len(groups) - 1; i >= 0; i-- {
		if !groups[i].EffectiveFrom.After(d) {
			return groups[i], true
		}
	}
	return domain.WeeklyScheduleGroup{}, false
}

func expandToSeats(areaSpans []domain.AreaSpan, seatMap domain.AreaSeatMap) []domain.SeatSpan {
	var spans []domain.SeatSpan
	for _, as := range areaSpans {
		for _, seatID := range seatMap[as.AreaID] {
			spans = append(spans, domain.SeatSpan{
				SeatID:   seatID,
				StartMin: as.StartMin,
				EndMin:   as.EndMin,
			})
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].SeatID != spans[j].SeatID {
			return spans[i].SeatID < spans[j].SeatID
		}
		return spans[i].StartMin < spans[j].StartMin
	})
	return spans
}
