package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
)

// StockError carries the detail of a failed conditional decrement. It can
// happen after a successful availability pre-check when a concurrent
// reservation wins the race.
type StockError struct {
	ProductID uuid.UUID
	Requested uint
	Available uint
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

type GormRepo struct {
	DB *gorm.DB

	// Isolation applies to every multi-statement transaction. Production
	// wiring sets sql.LevelSerializable so the availability pre-check and the
	// reserve cannot see a phantom in between.
	Isolation sql.IsolationLevel
}

func (r *GormRepo) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := r.DB.WithContext(ctx)
	if r.Isolation != sql.LevelDefault {
		return db.Transaction(fn, &sql.TxOptions{Isolation: r.Isolation})
	}
	return db.Transaction(fn)
}
