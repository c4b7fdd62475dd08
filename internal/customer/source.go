package customer

import (
	"context"
	"errors"
)

// ErrSourceUnavailable is returned when the record source cannot be
// reached at all. Resolutions are all-or-nothing: callers never see a
// partial population.
var ErrSourceUnavailable = errors.New("customer source unavailable")

// Source supplies the full customer population with nested orders.
// No pagination contract: the engine reasons over whatever population
// it is handed.
type Source interface {
	ListCustomersWithOrders(ctx context.Context) ([]Record, error)
}
