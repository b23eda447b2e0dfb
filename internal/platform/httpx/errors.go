// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
)

// Sentinel errors for domain layer. Modules define their own sentinels as
// wraps of these so RespondError can map them without importing every module.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state transition")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807. Engine
// errors are business-rule violations and surface as 422 so callers can
// distinguish them from malformed requests.
func RespondError(w http.ResponseWriter, err error) {
	var (
		missingTax  *docengine.MissingTaxConfigError
		incomplete  *docengine.IncompleteProductDataError
		qtyExceeds  *docengine.QuantityExceedsOriginalError
		fieldLocked *docengine.FieldLockedError
		discLocked  *docengine.DiscountLockedError
		mrpExceeded *docengine.PriceExceedsMRPError
		serialCount *docengine.SerialCountMismatchError
		serialDup   *docengine.DuplicateSerialError
		serialAvail *docengine.SerialUnavailableError
		serialClash *docengine.SerialCollisionError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &missingTax),
		errors.As(err, &incomplete),
		errors.As(err, &qtyExceeds),
		errors.As(err, &fieldLocked),
		errors.As(err, &discLocked),
		errors.As(err, &mrpExceeded),
		errors.As(err, &serialCount),
		errors.As(err, &serialDup),
		errors.As(err, &serialAvail),
		errors.As(err, &serialClash),
		errors.Is(err, docengine.ErrInvalidValue):
		Problem(w, http.StatusUnprocessableEntity, "Document Rule Violation", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
