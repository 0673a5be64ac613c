package repository

import "context"

// TransactionManager runs fn inside a store transaction. The tx handle is
// handed to fn and may be passed to repository methods as their qx argument.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx any) error) error
}
