// Package repository holds the MySQL-backed stores for users, refresh
// tokens, amenities and reservations, plus the sentinel errors handlers
// translate into HTTP status codes.
package repository

import "errors"

// ErrNotFound is returned when a lookup by id matches no row.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// reservation owned by someone else.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would leave two active
// reservations overlapping on one amenity, or when a status update lost
// a race with another writer.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
var ErrEmailExists = errors.New("email already exists")
