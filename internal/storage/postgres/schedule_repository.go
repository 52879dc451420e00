package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

const dateLayout = "2006-01-02"

// ScheduleRepository reads the three versioned rule sources and the holiday
// calendar. All of them are owned by an external administrative workflow and
// are read-only here.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// ListWeeklyGroups returns every weekly schedule group for the venue with its
// items, sorted ascending by effective_from.
func (r *ScheduleRepository) ListWeeklyGroups(ctx context.Context, venueID int64) ([]domain.WeeklyScheduleGroup, error) {
	const groupQuery = `
SELECT id, venue_id, effective_from, apply_on_holiday
FROM weekly_schedule_groups
WHERE venue_id = $1
ORDER BY effective_from`

	rows, err := r.pool.Query(ctx, groupQuery, venueID)
	if err != nil {
		return nil, fmt.Errorf("list weekly groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.WeeklyScheduleGroup
	index := map[int64]int{}
	for rows.Next() {
		var g domain.WeeklyScheduleGroup
		if err := rows.Scan(&g.ID, &g.VenueID, &g.EffectiveFrom, &g.ApplyOnHoliday); err != nil {
			return nil, fmt.Errorf("weekly group scan: %w", err)
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("weekly group rows: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		return nil, nil
	}

	const itemQuery = `
SELECT i.group_id, i.area_id, i.day_of_week, i.start_min, i.end_min
FROM weekly_schedule_items i
JOIN weekly_schedule_groups g ON g.id = i.group_id
WHERE g.venue_id = $1
ORDER BY i.group_id, i.day_of_week, i.start_min`

	itemRows, err := r.pool.Query(ctx, itemQuery, venueID)
	if err != nil {
		return nil, fmt.Errorf("list weekly items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var groupID int64
		var item domain.WeeklyScheduleItem
		if err := itemRows.Scan(&groupID, &item.AreaID, &item.DayOfWeek, &item.StartMin, &item.EndMin); err != nil {
			return nil, fmt.Errorf("weekly item scan: %w", err)
		}
		if i, ok := index[groupID]; ok {
			groups[i].Items = append(groups[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("weekly item rows: %w", err)
	}
	return groups, nil
}

// ListClosedGroups returns every closed-day group for the venue with its
// rules, sorted ascending by effective_from.
func (r *ScheduleRepository) ListClosedGroups(ctx context.Context, venueID int64) ([]domain.ClosedDayGroup, error) {
	const groupQuery = `
SELECT id, venue_id, effective_from
FROM closed_day_groups
WHERE venue_id = $1
ORDER BY effective_from`

	rows, err := r.pool.Query(ctx, groupQuery, venueID)
	if err != nil {
		return nil, fmt.Errorf("list closed groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.ClosedDayGroup
	index := map[int64]int{}
	for rows.Next() {
		var g domain.ClosedDayGroup
		if err := rows.Scan(&g.ID, &g.VenueID, &g.EffectiveFrom); err != nil {
			return nil, fmt.Errorf("closed group scan: %w", err)
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("closed group rows: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		return nil, nil
	}

	const ruleQuery = `
SELECT r.group_id, r.kind, COALESCE(r.day_of_week, 0), COALESCE(r.day_of_month, 0), COALESCE(r.week_of_month, 0)
FROM closed_day_rules r
JOIN closed_day_groups g ON g.id = r.group_id
WHERE g.venue_id = $1
ORDER BY r.group_id, r.id`

	ruleRows, err := r.pool.Query(ctx, ruleQuery, venueID)
	if err != nil {
		return nil, fmt.Errorf("list closed rules: %w", err)
	}
	defer ruleRows.Close()

	for ruleRows.Next() {
		var groupID int64
		var rule domain.ClosedDayRule
		var kind string
		if err := ruleRows.Scan(&groupID, &kind, &rule.DayOfWeek, &rule.DayOfMonth, &rule.WeekOfMonth); err != nil {
			return nil, fmt.Errorf("closed rule scan: %w", err)
		}
		rule.Kind = domain.ClosedRuleKind(kind)
		if i, ok := index[groupID]; ok {
			groups[i].Rules = append(groups[i].Rules, rule)
		}
	}
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("closed rule rows: %w", err)
	}
	return groups, nil
}

// ListSpecialDays returns the special days of [from, to] keyed by date.
func (r *ScheduleRepository) ListSpecialDays(ctx context.Context, venueID int64, from, to time.Time) (map[string]domain.SpecialDay, error) {
	const dayQuery = `
SELECT id, venue_id, date, type, COALESCE(reason, '')
FROM special_days
WHERE venue_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date`

	rows, err := r.pool.Query(ctx, dayQuery, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list special days: %w", err)
	}
	defer rows.Close()

	days := map[string]domain.SpecialDay{}
	index := map[int64]string{}
	for rows.Next() {
		var d domain.SpecialDay
		var typ string
		if err := rows.Scan(&d.ID, &d.VenueID, &d.Date, &typ, &d.Reason); err != nil {
			return nil, fmt.Errorf("special day scan: %w", err)
		}
		d.Type = domain.SpecialDayType(typ)
		key := d.Date.Format(dateLayout)
		days[key] = d
		index[d.ID] = key
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("special day rows: %w", err)
	}
	rows.Close()

	if len(days) == 0 {
		return days, nil
	}

	const scheduleQuery = `
SELECT s.special_day_id, s.area_id, s.start_min, s.end_min
FROM special_day_schedules s
JOIN special_days d ON d.id = s.special_day_id
WHERE d.venue_id = $1 AND d.date BETWEEN $2 AND $3
ORDER BY s.special_day_id, s.start_min`

	schedRows, err := r.pool.Query(ctx, scheduleQuery, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list special day schedules: %w", err)
	}
	defer schedRows.Close()

	for schedRows.Next() {
		var dayID int64
		var s domain.SpecialDaySchedule
		if err := schedRows.Scan(&dayID, &s.AreaID, &s.StartMin, &s.EndMin); err != nil {
			return nil, fmt.Errorf("special day schedule scan: %w", err)
		}
		if key, ok := index[dayID]; ok {
			day := days[key]
			day.Schedules = append(day.Schedules, s)
			days[key] = day
		}
	}
	if err := schedRows.Err(); err != nil {
		return nil, fmt.Errorf("special day schedule rows: %w", err)
	}
	return days, nil
}

// ListHolidays returns the holiday dates of [from, to] as a set keyed by
// "YYYY-MM-DD". The table is materialized by an external ingestion job.
func (r *ScheduleRepository) ListHolidays(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	const query = `SELECT date FROM holidays WHERE date BETWEEN $1 AND $2`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	set := map[string]bool{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("holiday scan: %w", err)
		}
		set[d.Format(dateLayout)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("holiday rows: %w", err)
	}
	return set, nil
}
