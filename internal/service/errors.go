// Package service implements the business rules of the rental
// marketplace: reservation lifecycle, payment processing and the
// authorization checks around them. Services depend on small store
// interfaces so the rules can be tested without a database.
//
// Failures are reported through the sentinel errors below, wrapped with
// fmt.Errorf("%w: ...") so handlers can classify them with errors.Is and
// still surface a useful message.
package service

import (
	"database/sql"
	"errors"

	"github.com/onlyren/onlyren-api/internal/model"
	"github.com/onlyren/onlyren-api/internal/repository"
)

var (
	// ErrValidation covers malformed or out-of-range input. Maps to 422.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers missing resources. Maps to 404.
	ErrNotFound = errors.New("not found")
	// ErrForbidden covers operations the actor is not allowed to perform
	// on this resource. Maps to 403.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict covers overlapping reservations and other state
	// collisions. Maps to 409.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState covers operations applied to a resource whose
	// current state does not admit them. Maps to 422.
	ErrInvalidState = errors.New("invalid state")
)

// Actor identifies who is performing an operation. Authorization is
// decided here in the service layer, against the resource, rather than
// only at the route level: a user role can reach GET /reservations/:id
// but still may not read someone else's booking.
type Actor struct {
	ID   uint64
	Role string
}

// Admin reports whether the actor holds the admin role.
func (a Actor) Admin() bool { return a.Role == model.RoleAdmin }

// Renter reports whether the actor holds the renter role.
func (a Actor) Renter() bool { return a.Role == model.RoleRenter }

// mapStoreErr translates storage sentinels into service sentinels so
// callers only ever see the taxonomy above.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	}
	return err
}
