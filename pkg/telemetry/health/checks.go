package health

import (
	"context"
	"errors"
)

// TableCounter reports how many governed tables are registered.
type TableCounter interface {
	Count() int
}

// Pinger is a collaborator that can verify its connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TablesLoaded fails while no vocabulary tables are registered.
func TablesLoaded(tables TableCounter) CheckFunc {
	return func(ctx context.Context) error {
		if tables.Count() == 0 {
			return errors.New("no vocabulary tables loaded")
		}
		return nil
	}
}

// Ping checks a datastore or ledger connection.
func Ping(p Pinger) CheckFunc {
	return p.Ping
}
