package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/1221221212/reservation-for-justin-sub000/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidQuery        = "invalid_query"
	codeInvalidTimeRange    = "invalid_time_range"
	codeInvalidPartySize    = "invalid_party_size"
	codeNoSeatsRequested    = "no_seats_requested"
	codeInvalidGridUnit     = "invalid_grid_unit"
	codeVenueNotFound       = "venue_not_found"
	codeDayOutcomeNotFound  = "day_outcome_not_found"
	codeSeatConflict        = "seat_conflict"
	codeRetryLater          = "retry_later"
	codeNoActiveSchedule    = "no_active_schedule_group"
	codeInternalError       = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the error taxonomy to transport codes: NotFound and
// InvalidState are deterministic outcomes, Conflict is 409, a lock timeout
// is 503 and retryable.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrVenueNotFound):
		writeError(w, http.StatusNotFound, codeVenueNotFound, err.Error())
	case errors.Is(err, domain.ErrDayOutcomeNotFound):
		writeError(w, http.StatusNotFound, codeDayOutcomeNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrSeatConflict):
		writeError(w, http.StatusConflict, codeSeatConflict, err.Error())
	case errors.Is(err, domain.ErrLockTimeout):
		writeError(w, http.StatusServiceUnavailable, codeRetryLater, err.Error())
	case errors.Is(err, domain.ErrNoActiveScheduleGroup):
		writeError(w, http.StatusConflict, codeNoActiveSchedule, err.Error())
	case errors.Is(err, domain.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, codeInvalidTimeRange, err.Error())
	case errors.Is(err, domain.ErrInvalidPartySize):
		writeError(w, http.StatusBadRequest, codeInvalidPartySize, err.Error())
	case errors.Is(err, domain.ErrNoSeatsRequested):
		writeError(w, http.StatusBadRequest, codeNoSeatsRequested, err.Error())
	case errors.Is(err, domain.ErrInvalidGridUnit):
		writeError(w, http.StatusBadRequest, codeInvalidGridUnit, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
