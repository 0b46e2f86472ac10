package api

import (
	"errors"
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/logging"
)

// statusFor maps a service error onto an HTTP status code.
// Ownership violations are reported as 404 so that foreign bookings stay hidden.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEmailConflict):
		return http.StatusConflict
	case domain.IsBadRequest(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", logging.RequestIDFrom(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, "internal server error")
		return
	}
	s.logger.Warn().Err(err).Int("status", code).Str("request_id", logging.RequestIDFrom(r.Context())).Msg("request rejected")
	writeError(w, code, err.Error())
}
