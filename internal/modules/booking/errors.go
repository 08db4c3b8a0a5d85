package booking

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("booking not found")
	ErrForbidden          = errors.New("not allowed for this role")
	ErrAmountExceedsTotal = errors.New("received amount exceeds total amount")
	ErrNotTrashed         = errors.New("booking is not in trash")
	ErrDuplicate          = errors.New("booking already exists")
	ErrNoData             = errors.New("no bookings to export")
)
