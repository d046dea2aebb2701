// Package repository implements MySQL persistence for users, refresh
// tokens, the table catalog and bookings. Lookups that find nothing return
// errors wrapping apperr.ErrNotFound (or sql.ErrNoRows for the auth
// repositories) so that handlers can map them to HTTP 404.
package repository

import "errors"

// ErrEmailExists is returned when registering an email that is already
// taken. Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrMultipleRows is returned by single-row helpers when a scope that
// should identify one booking matches several.
var ErrMultipleRows = errors.New("scope matched more than one booking")
