package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1221221212/reservation-for-justin-sub000/internal/clock"
	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

type fakeTxKey struct{}

type fakeTxState struct {
	held         []*sync.Mutex
	reservations []domain.Reservation
	lines        []domain.SeatLine
	codes        map[int64]string
}

// fakeBookingRepo emulates the transactional repository: LockSeatDate blocks
// on a per-(seat, date) mutex held until the transaction callback returns, and
// writes stay staged until commit.
type fakeBookingRepo struct {
	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	lines     []domain.SeatLine
	nextID    int64
	lockOrder []int64
	lockErr   error
	insertErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{locks: map[string]*sync.Mutex{}, nextID: 1}
}

func (r *fakeBookingRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &fakeTxState{codes: map[int64]string{}}
	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))

	r.mu.Lock()
	if err == nil {
		r.lines = append(r.lines, tx.lines...)
	}
	r.mu.Unlock()

	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
	return err
}

func txState(ctx context.Context) *fakeTxState {
	tx, _ := ctx.Value(fakeTxKey{}).(*fakeTxState)
	return tx
}

func (r *fakeBookingRepo) LockSeatDate(ctx context.Context, seatID int64, date time.Time) error {
	if r.lockErr != nil {
		return r.lockErr
	}
	key := fmt.Sprintf("%d:%s", seatID, date.Format("2006-01-02"))
	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	r.lockOrder = append(r.lockOrder, seatID)
	r.mu.Unlock()

	m.Lock()
	tx := txState(ctx)
	tx.held = append(tx.held, m)
	return nil
}

func (r *fakeBookingRepo) ListOverlapping(ctx context.Context, seatID int64, date time.Time, startMin, endMin int) ([]domain.SeatLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SeatLine
	for _, l := range r.lines {
		if l.SeatID == seatID && l.Date.Equal(date) && l.Overlaps(startMin, endMin) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) InsertReservation(ctx context.Context, res domain.Reservation) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.mu.Unlock()
	res.ID = id
	txState(ctx).reservations = append(txState(ctx).reservations, res)
	return id, nil
}

func (r *fakeBookingRepo) UpdateReservationCode(ctx context.Context, id int64, code string) error {
	txState(ctx).codes[id] = code
	return nil
}

func (r *fakeBookingRepo) InsertSeatLines(ctx context.Context, lines []domain.SeatLine) error {
	tx := txState(ctx)
	tx.lines = append(tx.lines, lines...)
	return nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeInvalidator) InvalidateDate(ctx context.Context, venueID int64, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)
	return f.err
}

func testBookingService(repo *fakeBookingRepo, inv CacheInvalidator) *BookingService {
	clk := clock.NewFixed(time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC))
	return NewBookingService(repo, inv, clk, zerolog.Nop(), nil)
}

func admitInput(seatIDs ...int64) AdmitReservationInput {
	return AdmitReservationInput{
		VenueID:   1,
		PartySize: 2,
		Name:      "Sato",
		SeatIDs:   seatIDs,
		Date:      date(2025, time.June, 10),
		Start:     "18:00",
		End:       "20:00",
	}
}

func TestAdmitReservationSuccess(t *testing.T) {
	repo := newFakeBookingRepo()
	inv := &fakeInvalidator{}
	svc := testBookingService(repo, inv)

	res, err := svc.AdmitReservation(context.Background(), admitInput(101))
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, "R20250610-000001", res.Code)
	assert.Equal(t, domain.ReservationBooked, res.Status)
	require.Len(t, repo.lines, 1)
	assert.Equal(t, int64(101), repo.lines[0].SeatID)
	assert.Equal(t, 18*60, repo.lines[0].StartMin)
	assert.Equal(t, 20*60, repo.lines[0].EndMin)
	require.Len(t, inv.calls, 1)
	assert.Equal(t, date(2025, time.June, 10), inv.calls[0])
}

func TestAdmitReservationValidation(t *testing.T) {
	svc := testBookingService(newFakeBookingRepo(), nil)
	ctx := context.Background()

	in := admitInput()
	_, err := svc.AdmitReservation(ctx, in)
	assert.ErrorIs(t, err, domain.ErrNoSeatsRequested)

	in = admitInput(101)
	in.PartySize = 0
	_, err = svc.AdmitReservation(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidPartySize)

	in = admitInput(101)
	in.Start = "20:00"
	in.End = "18:00"
	_, err = svc.AdmitReservation(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	in = admitInput(101)
	in.Start = "25:99"
	_, err = svc.AdmitReservation(ctx, in)
	assert.Error(t, err)
}

func TestAdmitReservationConflictWithExistingLine(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.lines = append(repo.lines, domain.SeatLine{
		ReservationID: 7, SeatID: 101, Date: date(2025, time.June, 10), StartMin: 19 * 60, EndMin: 21 * 60,
	})
	inv := &fakeInvalidator{}
	svc := testBookingService(repo, inv)

	_, err := svc.AdmitReservation(context.Background(), admitInput(101))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSeatConflict)

	var conflict *domain.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(101), conflict.SeatID)
	assert.Equal(t, 19*60, conflict.StartMin)

	// Nothing was committed, nothing was invalidated.
	assert.Len(t, repo.lines, 1)
	assert.Empty(t, inv.calls)
}

func TestAdmitReservationAdjacentWindowsDoNotConflict(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.lines = append(repo.lines, domain.SeatLine{
		ReservationID: 7, SeatID: 101, Date: date(2025, time.June, 10), StartMin: 16 * 60, EndMin: 18 * 60,
	})
	svc := testBookingService(repo, &fakeInvalidator{})

	_, err := svc.AdmitReservation(context.Background(), admitInput(101))
	require.NoError(t, err)
	assert.Len(t, repo.lines, 2)
}

func TestConcurrentAdmissionsOneCommitsOneConflicts(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := testBookingService(repo, &fakeInvalidator{})

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			in := admitInput(101)
			if i == 1 {
				// Overlapping but not identical window.
				in.Start = "19:00"
				in.End = "21:00"
			}
			_, errs[i] = svc.AdmitReservation(context.Background(), in)
		}(i)
	}
	close(start)
	wg.Wait()

	committed, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, domain.ErrSeatConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, repo.lines, 1)
}

func TestAdmitReservationMultiSeatLockOrder(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := testBookingService(repo, &fakeInvalidator{})

	_, err := svc.AdmitReservation(context.Background(), admitInput(303, 101, 202, 101))
	require.NoError(t, err)

	// Deduplicated and locked in ascending order regardless of request order.
	assert.Equal(t, []int64{101, 202, 303}, repo.lockOrder)
	assert.Len(t, repo.lines, 3)
}

func TestAdmitReservationLockTimeoutPropagates(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.lockErr = domain.ErrLockTimeout
	svc := testBookingService(repo, &fakeInvalidator{})

	_, err := svc.AdmitReservation(context.Background(), admitInput(101))
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
}

func TestAdmitReservationInvalidationFailureDoesNotFailBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	inv := &fakeInvalidator{err: errors.New("redis down")}
	svc := testBookingService(repo, inv)

	res, err := svc.AdmitReservation(context.Background(), admitInput(101))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Code)
	assert.Len(t, inv.calls, 1)
}

func TestAdmitReservationNilInvalidator(t *testing.T) {
	svc := testBookingService(newFakeBookingRepo(), nil)

	_, err := svc.AdmitReservation(context.Background(), admitInput(101))
	require.NoError(t, err)
}

func TestReservationCodeFormat(t *testing.T) {
	code := ReservationCode(date(2025, time.December, 31), 42)
	assert.Equal(t, "R20251231-000042", code)
}
