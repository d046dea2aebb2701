package booking

import "github.com/iliyamo/restaurant-booking/internal/model"

// InitialStatus is the state every new booking starts in. Managers cannot
// mutate bookings, so a pending booking would have no path to confirmed;
// bookings are therefore confirmed on creation.
const InitialStatus = model.StatusConfirmed

var validNext = map[model.Status]map[model.Status]bool{
	model.StatusPending:   {model.StatusConfirmed: true, model.StatusCancelled: true},
	model.StatusConfirmed: {model.StatusCancelled: true},
	model.StatusCancelled: {},
}

// CanTransition reports whether a booking may move from one status to
// another. Nothing leaves cancelled.
func CanTransition(from, to model.Status) bool {
	return validNext[from][to]
}
