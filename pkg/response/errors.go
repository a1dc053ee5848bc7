package response

import (
	"errors"
	"net/http"

	"github.com/fkhayef/pantryledger/internal/apperrors"
)

// FromError writes the response matching the kind of err. fallback is used as
// the message whenever the error text should not reach the client.
func FromError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		BadRequest(w, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperrors.ErrConcurrentModification):
		Error(w, http.StatusConflict, "CONCURRENT_MODIFICATION", "The record was changed by another request, please retry")
	case errors.Is(err, apperrors.ErrPersistenceFailure):
		ServiceUnavailable(w, fallback)
	default:
		InternalError(w, fallback)
	}
}
