package turn

import (
	"context"
	"errors"
)

// ErrBusy は、すでに別のターンが進行中であることを示します。
var ErrBusy = errors.New("turn already in flight")

// Manager は、同時に 1 つだけ進行できるターンを管理します。
type Manager interface {
	// Acquire は、ターンが空くまで待ってから取得します。
	Acquire(ctx context.Context) error
	// TryAcquire は待たずに取得を試み、進行中のターンがあれば ErrBusy を返します。
	TryAcquire() error
	Release()
}
