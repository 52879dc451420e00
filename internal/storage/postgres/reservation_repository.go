package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

const defaultLockTimeout = 3 * time.Second

// ReservationRepository persists reservations and seat lines and provides the
// per-seat advisory locks that serialize admission attempts.
type ReservationRepository struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool, lockTimeout: defaultLockTimeout}
}

// WithLockTimeout overrides how long a transaction waits on a seat lock
// before the attempt is surfaced as retryable.
func (r *ReservationRepository) WithLockTimeout(d time.Duration) *ReservationRepository {
	if d > 0 {
		r.lockTimeout = d
	}
	return r
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockSeatDate takes a transaction-scoped exclusive advisory lock on the
// (seat, date) pair. The two-int4 key form keeps distinct pairs on distinct
// locks, unlike a single hashed key. Releases at commit or rollback.
func (r *ReservationRepository) LockSeatDate(ctx context.Context, seatID int64, date time.Time) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("lock seat %d: no transaction in context", seatID)
	}

	timeoutMs := r.lockTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeoutMs)); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	epochDay := int32(date.Unix() / 86400)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int4, $2::int4)`, int32(seatID), epochDay); err != nil {
		if isLockNotAvailable(err) {
			return domain.ErrLockTimeout
		}
		return fmt.Errorf("lock seat %d: %w", seatID, err)
	}
	return nil
}

// ListBookedLines returns every seat line on the date whose reservation is
// still booked. Cancelled reservations do not block seats.
func (r *ReservationRepository) ListBookedLines(ctx context.Context, venueID int64, date time.Time) ([]domain.SeatLine, error) {
	const query = `
SELECT l.reservation_id, l.seat_id, l.date, l.start_min, l.end_min
FROM reservation_seat_lines l
JOIN reservations res ON res.id = l.reservation_id
WHERE res.venue_id = $1 AND l.date = $2 AND res.status = 'booked'
ORDER BY l.seat_id, l.start_min`

	rows, err := r.query(ctx, query, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("list booked lines: %w", err)
	}
	defer rows.Close()

	return scanSeatLines(rows)
}

// ListOverlapping returns booked lines for the seat and date intersecting the
// half-open window [startMin, endMin).
func (r *ReservationRepository) ListOverlapping(ctx context.Context, seatID int64, date time.Time, startMin, endMin int) ([]domain.SeatLine, error) {
	const query = `
SELECT l.reservation_id, l.seat_id, l.date, l.start_min, l.end_min
FROM reservation_seat_lines l
JOIN reservations res ON res.id = l.reservation_id
WHERE l.seat_id = $1 AND l.date = $2 AND res.status = 'booked'
  AND l.start_min < $4 AND l.end_min > $3
ORDER BY l.start_min`

	rows, err := r.query(ctx, query, seatID, date, startMin, endMin)
	if err != nil {
		return nil, fmt.Errorf("list overlapping lines: %w", err)
	}
	defer rows.Close()

	return scanSeatLines(rows)
}

// InsertReservation inserts the header and returns the assigned id. The code
// column stays empty until UpdateReservationCode runs in the same
// transaction.
func (r *ReservationRepository) InsertReservation(ctx context.Context, res domain.Reservation) (int64, error) {
	const stmt = `
INSERT INTO reservations (venue_id, course_id, party_size, customer_name, customer_phone, customer_email, code, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8)
RETURNING id`

	var id int64
	err := r.queryRow(ctx, stmt,
		res.VenueID,
		res.CourseID,
		res.PartySize,
		res.Name,
		res.Phone,
		res.Email,
		res.Status,
		res.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert reservation: %w", err)
	}
	return id, nil
}

func (r *ReservationRepository) UpdateReservationCode(ctx context.Context, id int64, code string) error {
	const stmt = `UPDATE reservations SET code = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, code)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reservation code collision for id %d: %w", id, err)
		}
		return fmt.Errorf("update reservation code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update reservation code: id %d not found", id)
	}
	return nil
}

// InsertSeatLines writes one line per seat. The storage-level exclusion
// constraint on (seat, date, window) fires only if the advisory-lock
// pre-check was somehow bypassed; it surfaces as the same Conflict.
func (r *ReservationRepository) InsertSeatLines(ctx context.Context, lines []domain.SeatLine) error {
	const stmt = `
INSERT INTO reservation_seat_lines (reservation_id, seat_id, date, start_min, end_min)
VALUES ($1, $2, $3, $4, $5)`

	for _, l := range lines {
		if _, err := r.exec(ctx, stmt, l.ReservationID, l.SeatID, l.Date, l.StartMin, l.EndMin); err != nil {
			if isExclusionViolation(err) || isUniqueViolation(err) {
				return &domain.SeatConflictError{SeatID: l.SeatID, StartMin: l.StartMin, EndMin: l.EndMin}
			}
			return fmt.Errorf("insert seat line: %w", err)
		}
	}
	return nil
}

func (r *ReservationRepository) GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	const query = `
SELECT id, venue_id, course_id, party_size, customer_name, customer_phone, customer_email, code, status, created_at
FROM reservations
WHERE code = $1`

	var res domain.Reservation
	var status string
	err := r.queryRow(ctx, query, code).Scan(
		&res.ID,
		&res.VenueID,
		&res.CourseID,
		&res.PartySize,
		&res.Name,
		&res.Phone,
		&res.Email,
		&res.Code,
		&status,
		&res.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func scanSeatLines(rows pgx.Rows) ([]domain.SeatLine, error) {
	var lines []domain.SeatLine
	for rows.Next() {
		var l domain.SeatLine
		if err := rows.Scan(&l.ReservationID, &l.SeatID, &l.Date, &l.StartMin, &l.EndMin); err != nil {
			return nil, fmt.Errorf("seat line scan: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seat line rows: %w", err)
	}
	return lines, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
