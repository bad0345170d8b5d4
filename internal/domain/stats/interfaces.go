package stats

import "context"

// Repository persists the win ledger as a whole.
type Repository interface {
	LoadAll(ctx context.Context) (map[string]int, error)
	SaveAll(ctx context.Context, wins map[string]int) error
}
