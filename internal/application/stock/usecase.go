package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/ports"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

// maxSaveAttempts reintentos ante conflicto de versión optimista.
// La validación de negocio se reevalúa contra la fila recargada en cada intento.
const maxSaveAttempts = 3

// UseCase procesa transacciones de inventario: valida y aplica mutaciones
// import/export sobre la proyección, anota el libro de movimientos (best-effort)
// e invalida las entradas de caché afectadas después del commit.
type UseCase struct {
	records repository.StockRecordRepository
	ledger  repository.LedgerRepository
	cache   ports.Cache
	log     *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	records repository.StockRecordRepository,
	ledger repository.LedgerRepository,
	cache ports.Cache,
	log *logger.Logger,
) *UseCase {
	return &UseCase{records: records, ledger: ledger, cache: cache, log: log}
}

// Create registra una nueva línea de producto. El nombre debe ser único entre
// registros no eliminados: el check previo es check-then-act (aceptable porque
// el constraint único del store es el guard autoritativo).
func (uc *UseCase) Create(ctx context.Context, in dto.CreateStockRequest, actor string) (*entity.StockRecord, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" || in.Quantity < 0 || in.MinQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	existing, err := uc.records.FindByProductName(ctx, name, false)
	if err != nil {
		return nil, fmt.Errorf("verificar nombre: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict
	}

	now := time.Now()
	record := &entity.StockRecord{
		ID:            uuid.New().String(),
		ProductName:   name,
		Quantity:      in.Quantity,
		MinQuantity:   in.MinQuantity,
		Version:       1,
		LastUpdatedBy: actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := uc.records.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	// Stock inicial queda anotado como IMPORT en el libro
	if created.Quantity > 0 {
		uc.appendLedger(ctx, created.ID, entity.TxTypeImport, created.Quantity, actor)
	}
	uc.invalidateCaches(ctx, created.ID, created.ProductName)
	return created, nil
}

// Get devuelve el registro activo por id, pasando por caché (región detail).
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.StockRecord, error) {
	var cached entity.StockRecord
	if ok, err := uc.cache.Get(ctx, ports.RegionStockDetail, id, &cached); err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Msg("lectura de caché fallida, se consulta el store")
	} else if ok {
		return &cached, nil
	}

	record, err := uc.records.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if record == nil || record.IsDeleted {
		return nil, domain.ErrNotFound
	}
	if err := uc.cache.Set(ctx, ports.RegionStockDetail, id, record); err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Msg("no se pudo poblar la caché de detalle")
	}
	return record, nil
}

// GetByName devuelve el registro activo por nombre de producto (región byname).
func (uc *UseCase) GetByName(ctx context.Context, name string) (*entity.StockRecord, error) {
	var cached entity.StockRecord
	if ok, err := uc.cache.Get(ctx, ports.RegionStockByName, name, &cached); err == nil && ok {
		return &cached, nil
	}

	record, err := uc.records.FindByProductName(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if record == nil || record.IsDeleted {
		return nil, domain.ErrNotFound
	}
	if err := uc.cache.Set(ctx, ports.RegionStockByName, name, record); err != nil {
		uc.log.Warn().Err(err).Str("product_name", name).Msg("no se pudo poblar el índice por nombre")
	}
	return record, nil
}

// Update modifica metadatos (nombre y mínimo); la cantidad solo cambia vía
// import/export. Renombrar exige unicidad entre registros no eliminados.
func (uc *UseCase) Update(ctx context.Context, id string, in dto.UpdateStockRequest, actor string) (*entity.StockRecord, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" || in.MinQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	var oldName string
	saved, err := uc.withVersionRetry(ctx, id, func(record *entity.StockRecord) error {
		if record.ProductName != name {
			dup, err := uc.records.FindByProductName(ctx, name, false)
			if err != nil {
				return fmt.Errorf("verificar nombre: %w", err)
			}
			if dup != nil && dup.ID != record.ID {
				return domain.ErrConflict
			}
		}
		oldName = record.ProductName
		record.ProductName = name
		record.MinQuantity = in.MinQuantity
		return nil
	}, actor)
	if err != nil {
		return nil, err
	}

	uc.invalidateCaches(ctx, saved.ID, saved.ProductName)
	if oldName != saved.ProductName {
		if err := uc.cache.Evict(ctx, ports.RegionStockByName, oldName); err != nil {
			uc.log.Warn().Err(err).Str("product_name", oldName).Msg("no se pudo invalidar el índice por nombre")
		}
	}
	return saved, nil
}

// ProcessTransaction valida y aplica una mutación IMPORT/EXPORT sobre la
// proyección y anota una entrada en el libro. La secuencia load-validate-save
// se reintenta ante conflicto de versión; la cantidad nunca queda negativa.
func (uc *UseCase) ProcessTransaction(ctx context.Context, stockID string, quantity int64, txType, actor string) (*entity.StockRecord, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if txType != entity.TxTypeImport && txType != entity.TxTypeExport {
		return nil, domain.ErrInvalidInput
	}

	saved, err := uc.withVersionRetry(ctx, stockID, func(record *entity.StockRecord) error {
		newQty := record.Quantity + entity.QuantityDelta(txType, quantity)
		if newQty < 0 {
			return domain.ErrInsufficientStock
		}
		record.Quantity = newQty
		return nil
	}, actor)
	if err != nil {
		return nil, err
	}

	// El libro es telemetría best-effort: su fallo jamás revierte la mutación
	// ni se reporta al caller.
	uc.appendLedger(ctx, saved.ID, txType, quantity, actor)
	uc.invalidateCaches(ctx, saved.ID, saved.ProductName)
	return saved, nil
}

// Import registra una entrada de mercancía.
func (uc *UseCase) Import(ctx context.Context, stockID string, quantity int64, actor string) (*entity.StockRecord, error) {
	return uc.ProcessTransaction(ctx, stockID, quantity, entity.TxTypeImport, actor)
}

// Export registra una salida de mercancía.
func (uc *UseCase) Export(ctx context.Context, stockID string, quantity int64, actor string) (*entity.StockRecord, error) {
	return uc.ProcessTransaction(ctx, stockID, quantity, entity.TxTypeExport, actor)
}

// SoftDelete marca el registro como eliminado sin tocar la cantidad.
func (uc *UseCase) SoftDelete(ctx context.Context, id, actor string) error {
	rows, err := uc.records.SoftDelete(ctx, id, time.Now(), actor)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	uc.invalidateCaches(ctx, id, "")
	return nil
}

// Restore limpia la marca de borrado dejando la cantidad intacta.
// Restaurar un registro no eliminado es un conflicto de negocio.
func (uc *UseCase) Restore(ctx context.Context, id, actor string) (*entity.StockRecord, error) {
	record, err := uc.records.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	if !record.IsDeleted {
		return nil, domain.ErrConflict
	}

	rows, err := uc.records.Restore(ctx, id, time.Now(), actor)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrDataPersistence
	}
	uc.invalidateCaches(ctx, id, record.ProductName)
	return uc.records.FindByID(ctx, id, false)
}

// PermanentDelete elimina físicamente el registro (purga explícita).
func (uc *UseCase) PermanentDelete(ctx context.Context, id string) error {
	record, err := uc.records.FindByID(ctx, id, true)
	if err != nil {
		return err
	}
	if record == nil {
		return domain.ErrNotFound
	}
	if err := uc.records.DeleteByID(ctx, id); err != nil {
		return err
	}
	uc.invalidateCaches(ctx, id, record.ProductName)
	return nil
}

// LedgerSummary devuelve conteos y totales del libro para un registro, con
// balance = imports - exports. Si se indica ventana (from/to + txType),
// incluye la suma del rango. La vista sin ventana se cachea en ledger:summary
// por id; la ventaneada en ledger:stats por id+tipo+rango.
func (uc *UseCase) LedgerSummary(ctx context.Context, id, txType string, from, to *time.Time) (*dto.LedgerSummaryResponse, error) {
	windowed := from != nil && to != nil && txType != ""
	var statsKey string
	if windowed {
		if txType != entity.TxTypeImport && txType != entity.TxTypeExport {
			return nil, domain.ErrInvalidInput
		}
		statsKey = fmt.Sprintf("%s:%s:%d:%d", id, txType, from.UnixMilli(), to.UnixMilli())
		var cached dto.LedgerSummaryResponse
		if ok, err := uc.cache.Get(ctx, ports.RegionLedgerStats, statsKey, &cached); err == nil && ok {
			return &cached, nil
		}
	} else {
		var cached dto.LedgerSummaryResponse
		if ok, err := uc.cache.Get(ctx, ports.RegionLedgerSummary, id, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	record, err := uc.records.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	movements, err := uc.ledger.CountByStockRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contar movimientos: %w", err)
	}
	imports, err := uc.ledger.TotalImportQuantity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("total imports: %w", err)
	}
	exports, err := uc.ledger.TotalExportQuantity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("total exports: %w", err)
	}

	summary := &dto.LedgerSummaryResponse{
		StockRecordID: id,
		Movements:     movements,
		TotalImports:  imports,
		TotalExports:  exports,
		Balance:       imports - exports,
	}

	if windowed {
		qty, err := uc.ledger.QuantityByTypeAndDateRange(ctx, id, txType, *from, *to)
		if err != nil {
			return nil, fmt.Errorf("suma por rango: %w", err)
		}
		summary.WindowQuantity = &qty
		if err := uc.cache.Set(ctx, ports.RegionLedgerStats, statsKey, summary); err != nil {
			uc.log.Warn().Err(err).Str("stock_id", id).Msg("no se pudo poblar la caché de stats del libro")
		}
		return summary, nil
	}

	if err := uc.cache.Set(ctx, ports.RegionLedgerSummary, id, summary); err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Msg("no se pudo poblar la caché del resumen")
	}
	return summary, nil
}

// Dashboard devuelve los contadores agregados (región dashboard en caché).
func (uc *UseCase) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	const cacheKey = "summary"
	var cached dto.DashboardResponse
	if ok, err := uc.cache.Get(ctx, ports.RegionDashboard, cacheKey, &cached); err == nil && ok {
		return &cached, nil
	}

	total, err := uc.records.CountAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("contar registros: %w", err)
	}
	below, err := uc.records.CountBelowMinimum(ctx)
	if err != nil {
		return nil, fmt.Errorf("contar bajo mínimo: %w", err)
	}
	out, err := uc.records.CountOutOfStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("contar agotados: %w", err)
	}
	entries, err := uc.ledger.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("contar libro: %w", err)
	}
	importMovs, err := uc.ledger.CountByType(ctx, entity.TxTypeImport)
	if err != nil {
		return nil, fmt.Errorf("contar imports: %w", err)
	}
	exportMovs, err := uc.ledger.CountByType(ctx, entity.TxTypeExport)
	if err != nil {
		return nil, fmt.Errorf("contar exports: %w", err)
	}

	resp := &dto.DashboardResponse{
		TotalRecords:   total,
		BelowMinimum:   below,
		OutOfStock:     out,
		LedgerEntries:  entries,
		ImportMovement: importMovs,
		ExportMovement: exportMovs,
	}
	if err := uc.cache.Set(ctx, ports.RegionDashboard, cacheKey, resp); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo poblar la caché del dashboard")
	}
	return resp, nil
}

// withVersionRetry ejecuta load → mutate → save condicionado a versión,
// reintentando ante ErrVersionConflict con la fila recargada. Tras agotar los
// intentos el conflicto se reporta como tal al caller.
func (uc *UseCase) withVersionRetry(
	ctx context.Context,
	id string,
	mutate func(record *entity.StockRecord) error,
	actor string,
) (*entity.StockRecord, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		record, err := uc.records.FindByID(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if record == nil || record.IsDeleted {
			return nil, domain.ErrNotFound
		}
		if err := mutate(record); err != nil {
			return nil, err
		}
		record.UpdatedAt = time.Now()
		record.LastUpdatedBy = actor

		saved, err := uc.records.Save(ctx, record)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		uc.log.Debug().
			Str("stock_id", id).
			Int("attempt", attempt).
			Msg("conflicto de versión, reintentando")
	}
	return nil, domain.ErrConflict
}

// appendLedger anota un movimiento en el libro. Best-effort: el error se
// registra con el id del registro y se traga; la mutación ya está confirmada.
func (uc *UseCase) appendLedger(ctx context.Context, stockID, txType string, quantity int64, actor string) {
	entry := &entity.LedgerEntry{
		ID:            uuid.New().String(),
		StockRecordID: stockID,
		Type:          txType,
		Quantity:      quantity,
		Actor:         actor,
		CreatedAt:     time.Now(),
	}
	if err := uc.ledger.Save(ctx, entry); err != nil {
		uc.log.Error().Err(err).
			Str("stock_id", stockID).
			Str("tx_type", txType).
			Int64("quantity", quantity).
			Msg("fallo al anotar el libro de movimientos (no se propaga)")
	}
}

// invalidateCaches evicta las claves por registro e invalida completas las
// regiones agregadas. Corre después del commit; fallos de caché solo se loguean
// (el TTL corto actúa de respaldo ante la ventana de staleness).
func (uc *UseCase) invalidateCaches(ctx context.Context, id, productName string) {
	if err := uc.cache.Evict(ctx, ports.RegionStockDetail, id); err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Msg("no se pudo invalidar el detalle")
	}
	if productName != "" {
		if err := uc.cache.Evict(ctx, ports.RegionStockByName, productName); err != nil {
			uc.log.Warn().Err(err).Str("stock_id", id).Msg("no se pudo invalidar el índice por nombre")
		}
	}
	if err := uc.cache.Evict(ctx, ports.RegionLedgerSummary, id); err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Msg("no se pudo invalidar el resumen del libro")
	}
	for _, region := range []string{ports.RegionAlerts, ports.RegionDashboard, ports.RegionLedgerStats} {
		if err := uc.cache.EvictRegion(ctx, region); err != nil {
			uc.log.Warn().Err(err).Str("region", region).Str("stock_id", id).Msg("no se pudo vaciar la región")
		}
	}
}
