package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/1221221212/reservation-for-justin-sub000/internal/clock"
	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
	"github.com/1221221212/reservation-for-justin-sub000/internal/metrics"
	"github.com/1221221212/reservation-for-justin-sub000/internal/slot"
)

// ReservationRepository is the transactional storage admission control runs
// against. LockSeatDate must hold an exclusive, transaction-scoped lock for
// the (seat, date) pair until commit or rollback.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockSeatDate(ctx context.Context, seatID int64, date time.Time) error
	ListOverlapping(ctx context.Context, seatID int64, date time.Time, startMin, endMin int) ([]domain.SeatLine, error)
	InsertReservation(ctx context.Context, res domain.Reservation) (int64, error)
	UpdateReservationCode(ctx context.Context, id int64, code string) error
	InsertSeatLines(ctx context.Context, lines []domain.SeatLine) error
}

// CacheInvalidator drops cached availability after a commit. Failures are
// logged, never propagated: the booking already happened.
type CacheInvalidator interface {
	InvalidateDate(ctx context.Context, venueID int64, date time.Time) error
}

// BookingService admits reservations. Concurrent attempts touching the same
// seat and date serialize on per-seat advisory locks, so no two committed
// reservations can overlap.
type BookingService struct {
	repo    ReservationRepository
	cache   CacheInvalidator
	clock   clock.Clock
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewBookingService(repo ReservationRepository, cache CacheInvalidator, clk clock.Clock, logger zerolog.Logger, m *metrics.Metrics) *BookingService {
	return &BookingService{
		repo:    repo,
		cache:   cache,
		clock:   clk,
		logger:  logger,
		metrics: m,
	}
}

// AdmitReservationInput is one admission attempt. Start and End are "HH:MM"
// clock times; the same window applies to every requested seat.
type AdmitReservationInput struct {
	VenueID   int64
	CourseID  *int64
	PartySize int
	Name      string
	Phone     string
	Email     string
	SeatIDs   []int64
	Date      time.Time
	Start     string
	End       string
}

// AdmitReservation serializes against concurrent attempts for the same
// seats and date, verifies no overlap, persists the reservation and
// invalidates cached availability for the date.
func (s *BookingService) AdmitReservation(ctx context.Context, in AdmitReservationInput) (domain.Reservation, error) {
	if len(in.SeatIDs) == 0 {
		return domain.Reservation{}, domain.ErrNoSeatsRequested
	}
	if in.PartySize <= 0 {
		return domain.Reservation{}, domain.ErrInvalidPartySize
	}
	startMin, err := slot.ParseTime(in.Start)
	if err != nil {
		return domain.Reservation{}, err
	}
	endMin, err := slot.ParseTime(in.End)
	if err != nil {
		return domain.Reservation{}, err
	}
	if startMin >= endMin {
		return domain.Reservation{}, domain.ErrInvalidTimeRange
	}

	// Fixed lock order across concurrent multi-seat requests.
	seatIDs := dedupeSorted(in.SeatIDs)

	now := s.clock.Now()
	var result domain.Reservation

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, seatID := range seatIDs {
			if err := s.repo.LockSeatDate(txCtx, seatID, in.Date); err != nil {
				return err
			}
		}

		for _, seatID := range seatIDs {
			existing, err := s.repo.ListOverlapping(txCtx, seatID, in.Date, startMin, endMin)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return &domain.SeatConflictError{
					SeatID:   seatID,
					StartMin: existing[0].StartMin,
					EndMin:   existing[0].EndMin,
				}
			}
		}

		res := domain.Reservation{
			VenueID:   in.VenueID,
			CourseID:  in.CourseID,
			PartySize: in.PartySize,
			Name:      in.Name,
			Phone:     in.Phone,
			Email:     in.Email,
			Status:    domain.ReservationBooked,
			CreatedAt: now,
		}
		id, err := s.repo.InsertReservation(txCtx, res)
		if err != nil {
			return err
		}
		res.ID = id
		res.Code = ReservationCode(in.Date, id)
		if err := s.repo.UpdateReservationCode(txCtx, id, res.Code); err != nil {
			return err
		}

		lines := make([]domain.SeatLine, 0, len(seatIDs))
		for _, seatID := range seatIDs {
			lines = append(lines, domain.SeatLine{
				ReservationID: id,
				SeatID:        seatID,
				Date:          in.Date,
				StartMin:      startMin,
				EndMin:        endMin,
			})
		}
		if err := s.repo.InsertSeatLines(txCtx, lines); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		if s.metrics != nil && isConflict(err) {
			s.metrics.ReservationConflicts.Inc()
		}
		return domain.Reservation{}, err
	}

	if s.metrics != nil {
		s.metrics.ReservationsAdmitted.Inc()
	}
	s.invalidateCache(ctx, in.VenueID, in.Date)

	return result, nil
}

func (s *BookingService) invalidateCache(ctx context.Context, venueID int64, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDate(ctx, venueID, date); err != nil {
		s.logger.Warn().Err(err).
			Int64("venue_id", venueID).
			Str("date", date.Format(dateKey)).
			Msg("availability cache invalidation failed")
	}
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrSeatConflict)
}

func dedupeSorted(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
