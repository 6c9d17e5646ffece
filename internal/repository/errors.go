// Package repository contains the data access layer. This file defines
// sentinel errors reused across repositories so handlers can map
// failure scenarios onto HTTP responses without inspecting SQL errors
// themselves.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not allowed to touch. Handlers should translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// dependent state, such as replacing a screen's seat layout while
// holding bookings still reference its seats, or deleting a showtime
// that has holding bookings. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSeatTaken is returned when a booking insert loses the seat race:
// the unique (showtime_id, seat_id, active) index rejected the row
// after the availability check had passed. Callers surface it as a
// seats-unavailable conflict.
var ErrSeatTaken = errors.New("seat already taken")
