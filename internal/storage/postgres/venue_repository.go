package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

// VenueRepository provides the read-only venue, area and seat registries.
type VenueRepository struct {
	pool *pgxpool.Pool
}

func NewVenueRepository(pool *pgxpool.Pool) *VenueRepository {
	return &VenueRepository{pool: pool}
}

func (r *VenueRepository) GetVenue(ctx context.Context, id int64) (domain.Venue, error) {
	const query = `SELECT id, name FROM venues WHERE id = $1`

	var v domain.Venue
	err := r.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Venue{}, domain.ErrVenueNotFound
		}
		return domain.Venue{}, fmt.Errorf("get venue: %w", err)
	}
	return v, nil
}

// AreaSeatMap loads the area to seat expansion for one venue.
func (r *VenueRepository) AreaSeatMap(ctx context.Context, venueID int64) (domain.AreaSeatMap, error) {
	const query = `
SELECT asm.area_id, asm.seat_id
FROM area_seats asm
JOIN areas a ON a.id = asm.area_id
WHERE a.venue_id = $1
ORDER BY asm.area_id, asm.seat_id`

	rows, err := r.pool.Query(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("area seat map: %w", err)
	}
	defer rows.Close()

	m := domain.AreaSeatMap{}
	for rows.Next() {
		var areaID, seatID int64
		if err := rows.Scan(&areaID, &seatID); err != nil {
			return nil, fmt.Errorf("area seat map scan: %w", err)
		}
		m[areaID] = append(m[areaID], seatID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("area seat map rows: %w", err)
	}
	return m, nil
}

func (r *VenueRepository) ListSeats(ctx context.Context, venueID int64) ([]domain.Seat, error) {
	const query = `SELECT id, venue_id, name, capacity FROM seats WHERE venue_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Name, &s.Capacity); err != nil {
			return nil, fmt.Errorf("list seats scan: %w", err)
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seats rows: %w", err)
	}
	return seats, nil
}
