package actions

import (
	"context"

	"github.com/carson-networks/finance-tracker/internal/storage"
)

// IAction is one unit of work run inside a single write transaction.
type IAction interface {
	Perform(ctx context.Context, writer *storage.Writer) error
	// Owner is the user whose documents the action changes.
	Owner() string
}
