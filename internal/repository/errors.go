// Package repository implements data access over MySQL. Sentinel errors
// defined here let handlers and services distinguish failure scenarios
// without inspecting SQL details: ErrForbidden maps to HTTP 403,
// ErrConflict to 409. Missing rows surface as sql.ErrNoRows.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state: an overlapping reservation on the same room, or
// deleting a room that still has active bookings.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email is taken.
var ErrEmailExists = errors.New("email already exists")
