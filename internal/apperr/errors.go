// Package apperr defines the error taxonomy shared by the booking core and
// the HTTP layer. Callers wrap these sentinels with fmt.Errorf("%w: ...")
// to attach detail and handlers match them with errors.Is.
package apperr

import "errors"

// ErrValidation marks a malformed or policy-disallowed field value, such as
// an illegal status target or a nonexistent table reference. Handlers
// translate it into HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when an authenticated caller may see a booking
// but is not permitted to mutate it. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound covers both missing records and records outside the caller's
// visibility scope. The two cases are intentionally indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when an operation is not valid for the
// booking's current lifecycle state, e.g. cancelling twice.
var ErrInvalidState = errors.New("invalid state")
