package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
	"github.com/1221221212/reservation-for-justin-sub000/internal/testutil"
)

// Integration tests; skipped automatically when TEST_DATABASE_URL is not
// reachable.

func setupReservationTest(t *testing.T) (context.Context, *pgxpool.Pool, *ReservationRepository) {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	_, err := pool.Exec(ctx, `INSERT INTO venues (id, name) VALUES (1, 'Main')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO seats (id, venue_id, name, capacity) VALUES (101, 1, 'T1', 2), (102, 1, 'T2', 4)`)
	require.NoError(t, err)

	return ctx, pool, NewReservationRepository(pool).WithLockTimeout(time.Second)
}

func insertBooking(t *testing.T, ctx context.Context, repo *ReservationRepository, seatID int64, day time.Time, startMin, endMin int) domain.Reservation {
	t.Helper()
	res := domain.Reservation{
		VenueID:   1,
		PartySize: 2,
		Name:      "Sato",
		Status:    domain.ReservationBooked,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := repo.LockSeatDate(txCtx, seatID, day); err != nil {
			return err
		}
		id, err := repo.InsertReservation(txCtx, res)
		if err != nil {
			return err
		}
		res.ID = id
		res.Code = codeFor(day, id)
		if err := repo.UpdateReservationCode(txCtx, id, res.Code); err != nil {
			return err
		}
		return repo.InsertSeatLines(txCtx, []domain.SeatLine{{
			ReservationID: id, SeatID: seatID, Date: day, StartMin: startMin, EndMin: endMin,
		}})
	})
	require.NoError(t, err)
	return res
}

func codeFor(day time.Time, id int64) string {
	return fmt.Sprintf("R%s-%06d", day.Format("20060102"), id)
}

func TestReservationRoundTrip(t *testing.T) {
	ctx, _, repo := setupReservationTest(t)
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	res := insertBooking(t, ctx, repo, 101, day, 18*60, 20*60)
	require.NotZero(t, res.ID)

	got, err := repo.GetReservationByCode(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, domain.ReservationBooked, got.Status)
	assert.Equal(t, "Sato", got.Name)

	lines, err := repo.ListBookedLines(ctx, 1, day)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(101), lines[0].SeatID)
	assert.Equal(t, 18*60, lines[0].StartMin)
}

func TestGetReservationByCodeNotFound(t *testing.T) {
	ctx, _, repo := setupReservationTest(t)

	_, err := repo.GetReservationByCode(ctx, "R20250610-999999")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}

func TestListOverlappingWindows(t *testing.T) {
	ctx, _, repo := setupReservationTest(t)
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	insertBooking(t, ctx, repo, 101, day, 18*60, 20*60)

	overlapping, err := repo.ListOverlapping(ctx, 101, day, 19*60, 21*60)
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	// Adjacent half-open windows do not overlap.
	adjacent, err := repo.ListOverlapping(ctx, 101, day, 20*60, 22*60)
	require.NoError(t, err)
	assert.Empty(t, adjacent)

	// Other seats are unaffected.
	other, err := repo.ListOverlapping(ctx, 102, day, 19*60, 21*60)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCancelledReservationDoesNotBlock(t *testing.T) {
	ctx, pool, repo := setupReservationTest(t)
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	res := insertBooking(t, ctx, repo, 101, day, 18*60, 20*60)

	_, err := pool.Exec(ctx, `UPDATE reservations SET status = 'cancelled' WHERE id = $1`, res.ID)
	require.NoError(t, err)
	// The exclusion constraint still covers cancelled lines, so drop them the
	// way a cancellation flow would.
	_, err = pool.Exec(ctx, `DELETE FROM reservation_seat_lines WHERE reservation_id = $1`, res.ID)
	require.NoError(t, err)

	lines, err := repo.ListBookedLines(ctx, 1, day)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestInsertSeatLinesExclusionMapsToConflict(t *testing.T) {
	ctx, _, repo := setupReservationTest(t)
	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	insertBooking(t, ctx, repo, 101, day, 18*60, 20*60)

	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		id, err := repo.InsertReservation(txCtx, domain.Reservation{
			VenueID: 1, PartySize: 2, Name: "Tanaka",
			Status: domain.ReservationBooked, CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return repo.InsertSeatLines(txCtx, []domain.SeatLine{{
			ReservationID: id, SeatID: 101, Date: day, StartMin: 19 * 60, EndMin: 21 * 60,
		}})
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
	var conflict *domain.SeatConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestLockSeatDateRequiresTransaction(t *testing.T) {
	ctx, _, repo := setupReservationTest(t)

	err := repo.LockSeatDate(ctx, 101, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}
