package repository

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the placement repositories.
var (
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrDriveLocked         = errors.New("drive finished")
	ErrVersionConflict     = errors.New("application version conflict")
	ErrOfferLimitReached   = errors.New("offer limit reached")
)

// OfferLimitError reports a placement refused because the student already holds Limit offers.
type OfferLimitError struct {
	Held  int
	Limit int
}

func (e *OfferLimitError) Error() string {
	return fmt.Sprintf("student already holds %d of %d offers", e.Held, e.Limit)
}

// Is matches ErrOfferLimitReached.
func (e *OfferLimitError) Is(target error) bool {
	return target == ErrOfferLimitReached
}
