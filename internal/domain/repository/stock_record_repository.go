package repository

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// StockRecordRepository define el puerto de persistencia de la proyección de stock.
// Save debe aplicar el check de versión optimista y la unicidad del nombre de
// producto entre registros no eliminados (el store es el guard autoritativo).
type StockRecordRepository interface {
	FindByID(ctx context.Context, id string, includeDeleted bool) (*entity.StockRecord, error)
	FindByProductName(ctx context.Context, name string, includeDeleted bool) (*entity.StockRecord, error)

	// Create inserta un registro nuevo (versión inicial 1).
	Create(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error)
	// Save actualiza condicionado a la versión actual; devuelve
	// domain.ErrVersionConflict si otra escritura ganó la carrera.
	Save(ctx context.Context, record *entity.StockRecord) (*entity.StockRecord, error)

	// SoftDelete/Restore devuelven las filas afectadas (0 = no aplicó).
	SoftDelete(ctx context.Context, id string, when time.Time, actor string) (int64, error)
	Restore(ctx context.Context, id string, when time.Time, actor string) (int64, error)
	DeleteByID(ctx context.Context, id string) error

	CountBelowMinimum(ctx context.Context) (int64, error)
	CountOutOfStock(ctx context.Context) (int64, error)
	CountAll(ctx context.Context, includeDeleted bool) (int64, error)

	// Paginación cero-based. No se garantiza orden estable entre páginas
	// si hay mutaciones concurrentes.
	FindBelowMinimum(ctx context.Context, page, size int) ([]*entity.StockRecord, error)
	FindOutOfStock(ctx context.Context, page, size int) ([]*entity.StockRecord, error)
}
