package alert_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/alert"
	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	domalert "github.com/jhoicas/almacen-api/internal/domain/alert"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

// fakeAlertSource sirve las dos consultas fuente del agregador sobre slices fijos.
type fakeAlertSource struct {
	belowMinimum []*entity.StockRecord
	outOfStock   []*entity.StockRecord
}

func (f *fakeAlertSource) FindBelowMinimum(_ context.Context, page, size int) ([]*entity.StockRecord, error) {
	return pageOf(f.belowMinimum, page, size), nil
}

func (f *fakeAlertSource) FindOutOfStock(_ context.Context, page, size int) ([]*entity.StockRecord, error) {
	return pageOf(f.outOfStock, page, size), nil
}

func (f *fakeAlertSource) CountBelowMinimum(context.Context) (int64, error) {
	return int64(len(f.belowMinimum)), nil
}

func (f *fakeAlertSource) CountOutOfStock(context.Context) (int64, error) {
	return int64(len(f.outOfStock)), nil
}

func pageOf(records []*entity.StockRecord, page, size int) []*entity.StockRecord {
	start := page * size
	if start >= len(records) {
		return nil
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// Métodos del puerto que el agregador no toca.
func (f *fakeAlertSource) FindByID(context.Context, string, bool) (*entity.StockRecord, error) {
	return nil, nil
}
func (f *fakeAlertSource) FindByProductName(context.Context, string, bool) (*entity.StockRecord, error) {
	return nil, nil
}
func (f *fakeAlertSource) Create(context.Context, *entity.StockRecord) (*entity.StockRecord, error) {
	return nil, nil
}
func (f *fakeAlertSource) Save(context.Context, *entity.StockRecord) (*entity.StockRecord, error) {
	return nil, nil
}
func (f *fakeAlertSource) SoftDelete(context.Context, string, time.Time, string) (int64, error) {
	return 0, nil
}
func (f *fakeAlertSource) Restore(context.Context, string, time.Time, string) (int64, error) {
	return 0, nil
}
func (f *fakeAlertSource) DeleteByID(context.Context, string) error { return nil }

func (f *fakeAlertSource) CountAll(context.Context, bool) (int64, error) { return 0, nil }

// nopCache nunca acierta y acepta cualquier escritura.
type nopCache struct{}

func (nopCache) Get(context.Context, string, string, any) (bool, error) { return false, nil }

func (nopCache) Set(context.Context, string, string, any) error { return nil }

func (nopCache) Evict(context.Context, string, ...string) error { return nil }

func (nopCache) EvictRegion(context.Context, string) error { return nil }

func stockAt(id string, quantity, minQuantity int64) *entity.StockRecord {
	return &entity.StockRecord{
		ID:          id,
		ProductName: "Producto " + id,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		UpdatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func buildAggregator(source *fakeAlertSource) *alert.Aggregator {
	return alert.NewAggregator(source, nopCache{}, logger.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de entrada
// ──────────────────────────────────────────────────────────────────────────────

func TestGetAlerts_ParametrosInvalidos(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{})
	ctx := context.Background()

	_, err := agg.GetAlerts(ctx, -1, 20, dto.AlertModeAll)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = agg.GetAlerts(ctx, 0, 0, dto.AlertModeAll)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = agg.GetAlerts(ctx, 0, 20, "SOBRE_MAXIMO")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// El modo vacío equivale a ALL.
func TestGetAlerts_ModoVacioEsAll(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{
		outOfStock: []*entity.StockRecord{stockAt("a", 0, 10)},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 20, "")

	require.NoError(t, err)
	assert.Equal(t, dto.AlertModeAll, resp.AlertType)
	require.Len(t, resp.Items, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Modos por fuente única
// ──────────────────────────────────────────────────────────────────────────────

func TestGetAlerts_ModoBelowMinimum(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{
			stockAt("b1", 5, 20),
			stockAt("b2", 8, 10),
		},
		outOfStock: []*entity.StockRecord{stockAt("o1", 0, 10)},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 20, dto.AlertModeBelowMinimum)

	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.TotalItems, "el total no debe mezclar la otra fuente")
	require.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		assert.Equal(t, domalert.SeverityWarning, item.Severity)
	}
}

func TestGetAlerts_ModoOutOfStock(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{stockAt("b1", 5, 20)},
		outOfStock:   []*entity.StockRecord{stockAt("o1", 0, 10)},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 20, dto.AlertModeOutOfStock)

	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.TotalItems)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, domalert.SeverityCritical, resp.Items[0].Severity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Modo ALL: merge, dedup y total
// ──────────────────────────────────────────────────────────────────────────────

// Un registro agotado aparece en ambas fuentes pero solo una vez en la página.
func TestGetAlerts_AllDedupPorID(t *testing.T) {
	duplicado := stockAt("dup", 0, 10)
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{duplicado, stockAt("b1", 5, 20)},
		outOfStock:   []*entity.StockRecord{duplicado},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 20, dto.AlertModeAll)

	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	seen := make(map[string]int)
	for _, item := range resp.Items {
		seen[item.ID]++
	}
	assert.Equal(t, 1, seen["dup"], "el id duplicado debe aparecer una sola vez")
	// Los agotados van primero en la página mergeada
	assert.Equal(t, "dup", resp.Items[0].ID)
	assert.Equal(t, domalert.SeverityCritical, resp.Items[0].Severity)
}

// TotalItems en ALL es la suma de los contadores fuente, aun con solapamiento.
func TestGetAlerts_AllTotalEsSumaDeContadores(t *testing.T) {
	duplicado := stockAt("dup", 0, 10)
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{duplicado, stockAt("b1", 5, 20)},
		outOfStock:   []*entity.StockRecord{duplicado},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 20, dto.AlertModeAll)

	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.TotalItems)
}

// La página en ALL es la unión de las dos ventanas fuente: puede superar el
// size pedido y no se trunca (un item recortado no reaparecería después,
// porque cada fuente se pagina con su propio offset).
func TestGetAlerts_AllDevuelveLaUnionSinTruncar(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{
			stockAt("b1", 5, 20), stockAt("b2", 8, 10), stockAt("b3", 1, 4),
		},
		outOfStock: []*entity.StockRecord{stockAt("o1", 0, 10), stockAt("o2", 0, 5)},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 3, dto.AlertModeAll)

	require.NoError(t, err)
	assert.Len(t, resp.Items, 5)
	assert.EqualValues(t, 5, resp.TotalItems)
}

// Con una fuente que llena su ventana y otra no, todos los ids siguen siendo
// alcanzables recorriendo las páginas en orden.
func TestGetAlerts_AllTodasLasAlertasAlcanzables(t *testing.T) {
	source := &fakeAlertSource{
		outOfStock: []*entity.StockRecord{
			stockAt("o1", 0, 10), stockAt("o2", 0, 10), stockAt("o3", 0, 10),
			stockAt("o4", 0, 10), stockAt("o5", 0, 10),
		},
		belowMinimum: []*entity.StockRecord{
			stockAt("b1", 5, 20), stockAt("b2", 8, 10), stockAt("b3", 1, 4),
		},
	}
	agg := buildAggregator(source)

	seen := make(map[string]int)
	for page := 0; page < 4; page++ {
		resp, err := agg.GetAlerts(context.Background(), page, 5, dto.AlertModeAll)
		require.NoError(t, err)
		for _, item := range resp.Items {
			seen[item.ID]++
		}
	}

	require.Len(t, seen, 8, "las 8 alertas deben aparecer en alguna página")
	for id, count := range seen {
		assert.Equal(t, 1, count, "el id %s debe aparecer exactamente una vez", id)
	}
}

// Una mutación concurrente pudo sanar el registro entre consulta y clasificación:
// los niveles INFO se filtran de la página.
func TestGetAlerts_FiltraRegistrosSanados(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{
			stockAt("sano", 80, 20), // recargado después de la consulta fuente
			stockAt("b1", 5, 20),
		},
	})

	resp, err := agg.GetAlerts(context.Background(), 0, 20, dto.AlertModeBelowMinimum)

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "b1", resp.Items[0].ID)
}

// Página fuera de rango devuelve lista vacía, nunca error.
func TestGetAlerts_PaginaFueraDeRango(t *testing.T) {
	agg := buildAggregator(&fakeAlertSource{
		belowMinimum: []*entity.StockRecord{stockAt("b1", 5, 20)},
	})

	resp, err := agg.GetAlerts(context.Background(), 7, 20, dto.AlertModeBelowMinimum)

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.EqualValues(t, 1, resp.TotalItems)
	assert.Equal(t, 7, resp.Page)
}
