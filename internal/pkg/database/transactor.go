package database

import "context"

// Transactor runs fn in one transaction. Repositories called with the
// ctx passed to fn join that transaction; fn returning an error rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
