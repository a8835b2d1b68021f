package alert

import (
	"context"
	"fmt"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/ports"
	"github.com/jhoicas/almacen-api/internal/domain"
	domalert "github.com/jhoicas/almacen-api/internal/domain/alert"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

// Aggregator combina las fuentes de alertas (bajo mínimo y agotados) en una
// vista paginada única, clasificada y deduplicada por id.
type Aggregator struct {
	records repository.StockRecordRepository
	cache   ports.Cache
	log     *logger.Logger
}

// NewAggregator construye el agregador.
func NewAggregator(records repository.StockRecordRepository, cache ports.Cache, log *logger.Logger) *Aggregator {
	return &Aggregator{records: records, cache: cache, log: log}
}

var _ Lister = (*Aggregator)(nil)

// GetAlerts devuelve la página pedida de alertas según el modo.
// Página cero-based, size mínimo 1. En modo ALL cada fuente se pagina con su
// propio offset y la página devuelta es la unión deduplicada de ambas ventanas:
// puede superar size (hasta 2*size items) y nunca se trunca, porque un item
// recortado no reaparecería en páginas siguientes. Las dos consultas fuente son
// independientes y pueden correr contra mutaciones concurrentes, por eso el
// dedup defensivo por id dentro de la página; TotalItems es la suma de los dos
// contadores, no el conteo de la página mergeada.
func (a *Aggregator) GetAlerts(ctx context.Context, page, size int, mode string) (*dto.AlertListResponse, error) {
	if page < 0 || size < 1 {
		return nil, domain.ErrInvalidInput
	}
	if mode == "" {
		mode = dto.AlertModeAll
	}

	cacheKey := fmt.Sprintf("%s:%d:%d", mode, page, size)
	var cached dto.AlertListResponse
	if ok, err := a.cache.Get(ctx, ports.RegionAlerts, cacheKey, &cached); err != nil {
		a.log.Warn().Err(err).Str("key", cacheKey).Msg("lectura de caché de alertas fallida")
	} else if ok {
		return &cached, nil
	}

	resp := &dto.AlertListResponse{Page: page, Size: size, AlertType: mode}

	switch mode {
	case dto.AlertModeBelowMinimum:
		records, err := a.records.FindBelowMinimum(ctx, page, size)
		if err != nil {
			return nil, fmt.Errorf("consultar bajo mínimo: %w", err)
		}
		resp.Items = classifyAll(records)
		total, err := a.records.CountBelowMinimum(ctx)
		if err != nil {
			return nil, fmt.Errorf("contar bajo mínimo: %w", err)
		}
		resp.TotalItems = total

	case dto.AlertModeOutOfStock:
		records, err := a.records.FindOutOfStock(ctx, page, size)
		if err != nil {
			return nil, fmt.Errorf("consultar agotados: %w", err)
		}
		resp.Items = classifyAll(records)
		total, err := a.records.CountOutOfStock(ctx)
		if err != nil {
			return nil, fmt.Errorf("contar agotados: %w", err)
		}
		resp.TotalItems = total

	case dto.AlertModeAll:
		out, err := a.records.FindOutOfStock(ctx, page, size)
		if err != nil {
			return nil, fmt.Errorf("consultar agotados: %w", err)
		}
		below, err := a.records.FindBelowMinimum(ctx, page, size)
		if err != nil {
			return nil, fmt.Errorf("consultar bajo mínimo: %w", err)
		}
		merged := classifyAll(out)
		seen := make(map[string]struct{}, len(merged))
		for _, item := range merged {
			seen[item.ID] = struct{}{}
		}
		for _, item := range classifyAll(below) {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
		resp.Items = merged

		outTotal, err := a.records.CountOutOfStock(ctx)
		if err != nil {
			return nil, fmt.Errorf("contar agotados: %w", err)
		}
		belowTotal, err := a.records.CountBelowMinimum(ctx)
		if err != nil {
			return nil, fmt.Errorf("contar bajo mínimo: %w", err)
		}
		resp.TotalItems = outTotal + belowTotal

	default:
		return nil, domain.ErrInvalidInput
	}

	// Solo la lista envuelta se cachea, nunca los items como entidad
	if err := a.cache.Set(ctx, ports.RegionAlerts, cacheKey, resp); err != nil {
		a.log.Warn().Err(err).Str("key", cacheKey).Msg("no se pudo poblar la caché de alertas")
	}
	return resp, nil
}

// classifyAll clasifica y filtra los niveles sanos (INFO). Las fuentes ya
// consultan por déficit, pero una mutación concurrente pudo sanar el registro
// entre la consulta y la clasificación.
func classifyAll(records []*entity.StockRecord) []domalert.Item {
	items := make([]domalert.Item, 0, len(records))
	for _, r := range records {
		item := domalert.Classify(r)
		if item.Severity == domalert.SeverityInfo {
			continue
		}
		items = append(items, item)
	}
	return items
}
