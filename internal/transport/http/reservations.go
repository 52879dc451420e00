package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/1221221212/reservation-for-justin-sub000/internal/app"
	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

// ReservationAdmitter is the minimal interface needed to admit a reservation.
type ReservationAdmitter interface {
	AdmitReservation(ctx context.Context, in app.AdmitReservationInput) (domain.Reservation, error)
}

// ReservationFinder looks up a committed reservation by its public code.
type ReservationFinder interface {
	GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error)
}

// HandleCreateReservation returns an HTTP handler for booking admission.
func HandleCreateReservation(svc ReservationAdmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "date must be YYYY-MM-DD")
			return
		}
		if req.VenueID <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "venue_id is required")
			return
		}

		res, err := svc.AdmitReservation(r.Context(), app.AdmitReservationInput{
			VenueID:   req.VenueID,
			CourseID:  req.CourseID,
			PartySize: req.PartySize,
			Name:      req.Name,
			Phone:     req.Phone,
			Email:     req.Email,
			SeatIDs:   req.SeatIDs,
			Date:      date,
			Start:     req.Start,
			End:       req.End,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createReservationResponse{
			Code:      res.Code,
			Status:    string(res.Status),
			CreatedAt: res.CreatedAt,
		})
	}
}

// HandleGetReservation serves GET /reservations/{code}.
func HandleGetReservation(svc ReservationFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		code := strings.TrimPrefix(r.URL.Path, "/reservations/")
		if code == "" || strings.Contains(code, "/") {
			writeError(w, http.StatusNotFound, codeNotFound, "route not found")
			return
		}

		res, err := svc.GetReservationByCode(r.Context(), code)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, reservationResponse{
			Code:      res.Code,
			VenueID:   res.VenueID,
			PartySize: res.PartySize,
			Name:      res.Name,
			Status:    string(res.Status),
			CreatedAt: res.CreatedAt,
		})
	}
}

type createReservationRequest struct {
	VenueID   int64   `json:"venue_id"`
	CourseID  *int64  `json:"course_id"`
	PartySize int     `json:"party_size"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	SeatIDs   []int64 `json:"seat_ids"`
	Date      string  `json:"date"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
}

type createReservationResponse struct {
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type reservationResponse struct {
	Code      string    `json:"code"`
	VenueID   int64     `json:"venue_id"`
	PartySize int       `json:"party_size"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
