package alert_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/domain/alert"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

func buildStock(quantity, minQuantity int64) *entity.StockRecord {
	return &entity.StockRecord{
		ID:          "00000000-0000-0000-0000-000000000001",
		ProductName: "Tornillo 3mm",
		Quantity:    quantity,
		MinQuantity: minQuantity,
		UpdatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Fronteras de clasificación
// ──────────────────────────────────────────────────────────────────────────────

// Cantidad cero siempre es CRITICAL, sin importar el mínimo.
func TestClassify_CantidadCeroEsCritical(t *testing.T) {
	item := alert.Classify(buildStock(0, 10))

	assert.Equal(t, alert.SeverityCritical, item.Severity)
	assert.EqualValues(t, 10, item.Deficit)
	assert.Contains(t, item.Message, "agotado")
}

// Cantidad cero con mínimo cero también es CRITICAL (el cero manda).
func TestClassify_CantidadCeroConMinimoCero(t *testing.T) {
	item := alert.Classify(buildStock(0, 0))
	assert.Equal(t, alert.SeverityCritical, item.Severity)
}

// Por debajo del mínimo sin llegar a cero es WARNING con el déficit en el mensaje.
func TestClassify_BajoMinimoEsWarningConDeficit(t *testing.T) {
	item := alert.Classify(buildStock(30, 50))

	assert.Equal(t, alert.SeverityWarning, item.Severity)
	assert.EqualValues(t, 20, item.Deficit)
	assert.Contains(t, item.Message, "20", "el mensaje debe incluir el déficit")
}

// Cantidad igual al mínimo ya es nivel normal: INFO, no WARNING.
func TestClassify_CantidadIgualAlMinimoEsInfo(t *testing.T) {
	item := alert.Classify(buildStock(50, 50))
	assert.Equal(t, alert.SeverityInfo, item.Severity)
}

func TestClassify_SobreElMinimoEsInfo(t *testing.T) {
	item := alert.Classify(buildStock(120, 50))

	assert.Equal(t, alert.SeverityInfo, item.Severity)
	assert.EqualValues(t, -70, item.Deficit)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pureza
// ──────────────────────────────────────────────────────────────────────────────

// Classify es una función pura: el mismo snapshot produce el mismo Item campo a campo.
func TestClassify_DeterministaSobreElMismoSnapshot(t *testing.T) {
	snapshot := buildStock(30, 50)

	first := alert.Classify(snapshot)
	second := alert.Classify(snapshot)

	require.Equal(t, first, second)
}

// Classify copia el snapshot en el Item sin mutarlo.
func TestClassify_NoMutaElSnapshot(t *testing.T) {
	snapshot := buildStock(30, 50)
	before := *snapshot

	_ = alert.Classify(snapshot)

	assert.Equal(t, before, *snapshot)
}
