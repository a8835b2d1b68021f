package repository

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// LedgerRepository define el puerto del libro de movimientos (append-only).
// Save es la única escritura; las entradas jamás se actualizan ni se borran.
type LedgerRepository interface {
	Save(ctx context.Context, entry *entity.LedgerEntry) error

	CountAll(ctx context.Context) (int64, error)
	CountByStockRecord(ctx context.Context, stockRecordID string) (int64, error)
	CountByType(ctx context.Context, txType string) (int64, error)

	TotalImportQuantity(ctx context.Context, stockRecordID string) (int64, error)
	TotalExportQuantity(ctx context.Context, stockRecordID string) (int64, error)
	QuantityByTypeAndDateRange(ctx context.Context, stockRecordID, txType string, from, to time.Time) (int64, error)
}
