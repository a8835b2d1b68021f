package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación de LedgerRepository sobre PostgreSQL.
// La tabla es append-only: solo INSERT y agregaciones, jamás UPDATE/DELETE.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Save inserta una entrada del libro.
func (r *LedgerRepo) Save(ctx context.Context, entry *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, stock_record_id, type, quantity, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		entry.ID, entry.StockRecordID, entry.Type, entry.Quantity, entry.Actor, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save ledger entry: %w", err)
	}
	return nil
}

// CountAll cuenta todas las entradas del libro.
func (r *LedgerRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}

// CountByStockRecord cuenta las entradas de un registro.
func (r *LedgerRepo) CountByStockRecord(ctx context.Context, stockRecordID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE stock_record_id = $1`, stockRecordID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger by stock record: %w", err)
	}
	return n, nil
}

// CountByType cuenta las entradas por tipo (IMPORT | EXPORT).
func (r *LedgerRepo) CountByType(ctx context.Context, txType string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE type = $1`, txType,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger by type: %w", err)
	}
	return n, nil
}

// TotalImportQuantity suma las magnitudes IMPORT de un registro.
func (r *LedgerRepo) TotalImportQuantity(ctx context.Context, stockRecordID string) (int64, error) {
	return r.sumByType(ctx, stockRecordID, entity.TxTypeImport)
}

// TotalExportQuantity suma las magnitudes EXPORT de un registro.
func (r *LedgerRepo) TotalExportQuantity(ctx context.Context, stockRecordID string) (int64, error) {
	return r.sumByType(ctx, stockRecordID, entity.TxTypeExport)
}

func (r *LedgerRepo) sumByType(ctx context.Context, stockRecordID, txType string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM ledger_entries
		WHERE stock_record_id = $1 AND type = $2`, stockRecordID, txType,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum ledger by type: %w", err)
	}
	return total, nil
}

// QuantityByTypeAndDateRange suma magnitudes por tipo dentro de [from, to).
func (r *LedgerRepo) QuantityByTypeAndDateRange(ctx context.Context, stockRecordID, txType string, from, to time.Time) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM ledger_entries
		WHERE stock_record_id = $1 AND type = $2
		  AND created_at >= $3 AND created_at < $4`,
		stockRecordID, txType, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum ledger by range: %w", err)
	}
	return total, nil
}
