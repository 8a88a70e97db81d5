package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

// StandardResponse is the envelope of every response body.
type StandardResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	msgValidationFailed = "Validation failed"
	msgForbidden        = "Access denied. Insufficient permissions."
	msgInternal         = "An unexpected error occurred"
	msgMalformedBody    = "Malformed request body"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, StandardResponse{Success: true, Message: message, Data: data, Timestamp: s.now()})
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, StandardResponse{Success: false, Message: message, Data: data, Timestamp: s.now()})
}

// writeError maps a service error to a status code and envelope.
// Validation and conflict messages are shown to the client; internal
// failures get a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch common.KindOf(err) {
	case common.KindValidation:
		var verr *validation.Error
		if errors.As(err, &verr) {
			s.writeFailure(w, http.StatusBadRequest, msgValidationFailed, verr.Fields)
			return
		}
		s.writeFailure(w, http.StatusBadRequest, err.Error(), nil)
	case common.KindConflict:
		s.writeFailure(w, http.StatusBadRequest, err.Error(), nil)
	case common.KindUnauthorized:
		msg := err.Error()
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			msg = common.ErrTokenExpired.Error()
		case errors.Is(err, common.ErrInvalidToken):
			// parser details stay in the logs
			msg = common.ErrInvalidToken.Error()
		}
		s.writeFailure(w, http.StatusUnauthorized, msg, nil)
	case common.KindForbidden:
		s.writeFailure(w, http.StatusForbidden, msgForbidden, nil)
	default:
		s.writeFailure(w, http.StatusInternalServerError, msgInternal, nil)
	}
}
