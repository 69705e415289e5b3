package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/speaax/delve-companion/internal/api/response"
	"github.com/speaax/delve-companion/internal/profiles"
	"github.com/speaax/delve-companion/internal/tracker"
)

// maxBodyBytes bounds request bodies; the largest is a full sync snapshot.
const maxBodyBytes = 64 << 10

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// the error response has already been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	if err := GetValidator().ValidateStruct(dst); err != nil {
		response.ValidationFailed(w, FormatValidationError(err))
		return false
	}
	return true
}

// writeTrackerError maps tracker failures to status codes.
func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrInvalidFloor), errors.Is(err, tracker.ErrUnknownView):
		response.BadRequest(w, err)
	case errors.Is(err, profiles.ErrPersist):
		response.ServiceUnavailable(w, err)
	default:
		response.InternalError(w, err)
	}
}
