package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx). El constraint único parcial sobre product_name
// (WHERE NOT is_deleted) y el check de versión en el UPDATE son los guards
// autoritativos de unicidad y concurrencia.
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockColumns = `id, product_name, quantity, min_quantity, version, is_deleted, last_updated_by, created_at, updated_at`

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var r entity.StockRecord
	err := row.Scan(
		&r.ID, &r.ProductName, &r.Quantity, &r.MinQuantity,
		&r.Version, &r.IsDeleted, &r.LastUpdatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindByID busca por id. Devuelve nil sin error si no existe
// (o si está eliminado y no se pidió incluirlos).
func (r *StockRecordRepo) FindByID(ctx context.Context, id string, includeDeleted bool) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = false`
	}
	record, err := scanStockRecord(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock by id: %w", err)
	}
	return record, nil
}

// FindByProductName busca por nombre de producto.
func (r *StockRecordRepo) FindByProductName(ctx context.Context, name string, includeDeleted bool) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE product_name = $1`
	if !includeDeleted {
		query += ` AND is_deleted = false`
	}
	record, err := scanStockRecord(r.q.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock by name: %w", err)
	}
	return record, nil
}

// Create inserta un registro nuevo. Nombre duplicado se reporta como conflicto.
func (r *StockRecordRepo) Create(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error) {
	query := `
		INSERT INTO stock_records
			(id, product_name, quantity, min_quantity, version, is_deleted, last_updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7, $8)
		RETURNING ` + stockColumns
	created, err := scanStockRecord(r.q.QueryRow(ctx, query,
		record.ID, record.ProductName, record.Quantity, record.MinQuantity,
		record.Version, record.LastUpdatedBy, record.CreatedAt, record.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create stock record: %w", err)
	}
	return created, nil
}

// Save actualiza condicionado a la versión leída (UPDATE ... WHERE version = $n).
// Cero filas con el registro aún presente significa escritura obsoleta.
func (r *StockRecordRepo) Save(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error) {
	query := `
		UPDATE stock_records
		SET product_name = $1, quantity = $2, min_quantity = $3,
		    version = version + 1, last_updated_by = $4, updated_at = $5
		WHERE id = $6 AND version = $7 AND is_deleted = false
		RETURNING ` + stockColumns
	saved, err := scanStockRecord(r.q.QueryRow(ctx, query,
		record.ProductName, record.Quantity, record.MinQuantity,
		record.LastUpdatedBy, record.UpdatedAt, record.ID, record.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVersionConflict
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("save stock record: %w", err)
	}
	return saved, nil
}

// SoftDelete marca el registro como eliminado; la cantidad no se toca.
func (r *StockRecordRepo) SoftDelete(ctx context.Context, id string, when time.Time, actor string) (int64, error) {
	query := `
		UPDATE stock_records
		SET is_deleted = true, version = version + 1, last_updated_by = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = false`
	tag, err := r.q.Exec(ctx, query, actor, when, id)
	if err != nil {
		return 0, fmt.Errorf("soft delete stock record: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Restore limpia la marca de borrado; la cantidad queda como estaba.
func (r *StockRecordRepo) Restore(ctx context.Context, id string, when time.Time, actor string) (int64, error) {
	query := `
		UPDATE stock_records
		SET is_deleted = false, version = version + 1, last_updated_by = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = true`
	tag, err := r.q.Exec(ctx, query, actor, when, id)
	if err != nil {
		return 0, fmt.Errorf("restore stock record: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByID elimina físicamente (purga explícita).
func (r *StockRecordRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete stock record: %w", err)
	}
	return nil
}

// CountBelowMinimum cuenta registros activos con 0 < quantity < min_quantity.
func (r *StockRecordRepo) CountBelowMinimum(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_records
		WHERE is_deleted = false AND quantity > 0 AND quantity < min_quantity`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count below minimum: %w", err)
	}
	return n, nil
}

// CountOutOfStock cuenta registros activos con quantity = 0.
func (r *StockRecordRepo) CountOutOfStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_records
		WHERE is_deleted = false AND quantity = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count out of stock: %w", err)
	}
	return n, nil
}

// CountAll cuenta registros, opcionalmente incluyendo eliminados.
func (r *StockRecordRepo) CountAll(ctx context.Context, includeDeleted bool) (int64, error) {
	query := `SELECT COUNT(*) FROM stock_records`
	if !includeDeleted {
		query += ` WHERE is_deleted = false`
	}
	var n int64
	if err := r.q.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock records: %w", err)
	}
	return n, nil
}

// FindBelowMinimum página de registros activos con 0 < quantity < min_quantity,
// mayor déficit primero.
func (r *StockRecordRepo) FindBelowMinimum(ctx context.Context, page, size int) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockColumns + ` FROM stock_records
		WHERE is_deleted = false AND quantity > 0 AND quantity < min_quantity
		ORDER BY (min_quantity - quantity) DESC, id
		LIMIT $1 OFFSET $2`
	return r.queryPage(ctx, query, size, page*size)
}

// FindOutOfStock página de registros activos agotados.
func (r *StockRecordRepo) FindOutOfStock(ctx context.Context, page, size int) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockColumns + ` FROM stock_records
		WHERE is_deleted = false AND quantity = 0
		ORDER BY updated_at DESC, id
		LIMIT $1 OFFSET $2`
	return r.queryPage(ctx, query, size, page*size)
}

func (r *StockRecordRepo) queryPage(ctx context.Context, query string, limit, offset int) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query stock page: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.StockRecord, 0, limit)
	for rows.Next() {
		record, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock page: %w", err)
	}
	return records, nil
}
