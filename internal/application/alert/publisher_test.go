package alert_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/alert"
	"github.com/jhoicas/almacen-api/internal/application/dto"
	domalert "github.com/jhoicas/almacen-api/internal/domain/alert"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

// fakeLister pagina una lista fija de alertas y registra cada consulta.
type fakeLister struct {
	items   []domalert.Item
	queries []int // páginas pedidas, en orden
}

func (f *fakeLister) GetAlerts(_ context.Context, page, size int, mode string) (*dto.AlertListResponse, error) {
	f.queries = append(f.queries, page)
	start := page * size
	end := start + size
	if start > len(f.items) {
		start = len(f.items)
	}
	if end > len(f.items) {
		end = len(f.items)
	}
	return &dto.AlertListResponse{
		Items:      f.items[start:end],
		TotalItems: int64(len(f.items)),
		Page:       page,
		Size:       size,
		AlertType:  mode,
	}, nil
}

// fakeSender registra los mensajes entregados; failIDs simula rechazos del broker.
type fakeSender struct {
	sent    []alert.Message
	failIDs map[string]bool
}

func (f *fakeSender) Send(_ context.Context, key string, msg alert.Message) error {
	if f.failIDs[key] {
		return errors.New("broker no disponible")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func warningItems(n int) []domalert.Item {
	items := make([]domalert.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domalert.Item{
			ID:              fmt.Sprintf("stock-%02d", i),
			ProductName:     fmt.Sprintf("Producto %02d", i),
			CurrentQuantity: 5,
			MinQuantity:     20,
			Deficit:         15,
			Severity:        domalert.SeverityWarning,
		})
	}
	return items
}

func buildPublisher(lister *fakeLister, sender *fakeSender, cfg alert.PublisherConfig) *alert.Publisher {
	return alert.NewPublisher(lister, sender, cfg, logger.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// Gate de habilitación
// ──────────────────────────────────────────────────────────────────────────────

// Con el publicador deshabilitado el ciclo no consulta ni envía nada.
func TestRunCycle_DeshabilitadoNoHaceNada(t *testing.T) {
	lister := &fakeLister{items: warningItems(3)}
	sender := &fakeSender{}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{Enabled: false, PageSize: 5})

	sent := pub.RunCycle(context.Background())

	assert.Zero(t, sent)
	assert.Empty(t, lister.queries, "no debe consultar el agregador")
	assert.Empty(t, sender.sent)
}

// El disparo manual ignora el gate: es intención explícita del operador.
func TestTriggerAlertCheck_IgnoraElGate(t *testing.T) {
	lister := &fakeLister{items: warningItems(3)}
	sender := &fakeSender{}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{Enabled: false, PageSize: 5})

	sent, err := pub.TriggerAlertCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Len(t, sender.sent, 3)
}

// ──────────────────────────────────────────────────────────────────────────────
// Paginado del ciclo
// ──────────────────────────────────────────────────────────────────────────────

// Ocho alertas con páginas de cinco: dos páginas secuenciales, un mensaje por alerta.
func TestRunCycle_RecorreTodasLasPaginas(t *testing.T) {
	lister := &fakeLister{items: warningItems(8)}
	sender := &fakeSender{}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{Enabled: true, PageSize: 5})

	sent := pub.RunCycle(context.Background())

	assert.Equal(t, 8, sent)
	assert.Len(t, sender.sent, 8)
	assert.Equal(t, []int{0, 1}, lister.queries, "páginas en orden estricto")
}

// Ciclo contra el agregador real con las dos fuentes pobladas: cinco agotados
// y tres bajo mínimo con páginas de cinco deben producir exactamente ocho
// mensajes, uno por alerta, sin perder los de la fuente menor.
func TestRunCycle_FuentesMixtasPublicaTodasLasAlertas(t *testing.T) {
	source := &fakeAlertSource{
		outOfStock: []*entity.StockRecord{
			stockAt("o1", 0, 10), stockAt("o2", 0, 10), stockAt("o3", 0, 10),
			stockAt("o4", 0, 10), stockAt("o5", 0, 10),
		},
		belowMinimum: []*entity.StockRecord{
			stockAt("b1", 5, 20), stockAt("b2", 8, 10), stockAt("b3", 1, 4),
		},
	}
	sender := &fakeSender{}
	pub := alert.NewPublisher(buildAggregator(source), sender, alert.PublisherConfig{
		Enabled:  true,
		PageSize: 5,
	}, logger.Nop())

	sent := pub.RunCycle(context.Background())

	assert.Equal(t, 8, sent)
	require.Len(t, sender.sent, 8)
	delivered := make(map[string]int)
	for _, msg := range sender.sent {
		delivered[msg.ProductID]++
	}
	for _, id := range []string{"o1", "o2", "o3", "o4", "o5", "b1", "b2", "b3"} {
		assert.Equal(t, 1, delivered[id], "la alerta %s debe publicarse exactamente una vez", id)
	}
}

// Sin alertas vigentes el ciclo termina tras la primera página vacía.
func TestRunCycle_SinAlertas(t *testing.T) {
	lister := &fakeLister{}
	sender := &fakeSender{}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{Enabled: true, PageSize: 5})

	sent := pub.RunCycle(context.Background())

	assert.Zero(t, sent)
	assert.Equal(t, []int{0}, lister.queries)
}

// El tope por ciclo corta el recorrido aunque queden páginas pendientes.
func TestRunCycle_RespetaElTopePorCiclo(t *testing.T) {
	lister := &fakeLister{items: warningItems(12)}
	sender := &fakeSender{}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{
		Enabled:         true,
		PageSize:        5,
		MaxAlertsPerRun: 7,
	})

	sent := pub.RunCycle(context.Background())

	assert.Equal(t, 7, sent)
	assert.Len(t, sender.sent, 7)
}

// Sin CheckInterval configurado, Run usa el intervalo por defecto en lugar de
// reventar al crear el ticker.
func TestRun_SinIntervaloUsaElPorDefecto(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := buildPublisher(&fakeLister{}, &fakeSender{}, alert.PublisherConfig{Enabled: true})

	pub.Run(ctx) // con el ctx ya cancelado ejecuta un solo ciclo y retorna
}

// ──────────────────────────────────────────────────────────────────────────────
// Fallos por item
// ──────────────────────────────────────────────────────────────────────────────

// Un rechazo del broker no corta el ciclo y el retorno cuenta solo lo entregado.
func TestRunCycle_FalloPorItemNoCortaElCiclo(t *testing.T) {
	lister := &fakeLister{items: warningItems(5)}
	sender := &fakeSender{failIDs: map[string]bool{"stock-01": true, "stock-03": true}}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{Enabled: true, PageSize: 5})

	sent := pub.RunCycle(context.Background())

	assert.Equal(t, 3, sent, "solo los mensajes confirmados cuentan")
	assert.Len(t, sender.sent, 3)
}

// El conteo del disparo manual también refleja entregas reales, no intentos.
func TestTriggerAlertCheck_DevuelveEntregasReales(t *testing.T) {
	lister := &fakeLister{items: warningItems(4)}
	sender := &fakeSender{failIDs: map[string]bool{"stock-00": true}}
	pub := buildPublisher(lister, sender, alert.PublisherConfig{Enabled: true, PageSize: 10})

	sent, err := pub.TriggerAlertCheck(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, sent)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mensaje
// ──────────────────────────────────────────────────────────────────────────────

// El mensaje publicado lleva el snapshot del item y un id propio.
func TestNewMessage_CopiaElSnapshot(t *testing.T) {
	item := domalert.Item{
		ID:              "stock-99",
		ProductName:     "Arandela 8mm",
		CurrentQuantity: 3,
		MinQuantity:     15,
		Deficit:         12,
		Severity:        domalert.SeverityWarning,
	}

	msg := alert.NewMessage(item)

	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, "stock-99", msg.ProductID)
	assert.Equal(t, "Arandela 8mm", msg.ProductName)
	assert.EqualValues(t, 3, msg.CurrentQuantity)
	assert.EqualValues(t, 15, msg.Threshold)
	assert.Equal(t, domalert.SeverityWarning, msg.Level)
	assert.Contains(t, msg.Message, "12")
	assert.Positive(t, msg.Timestamp)
}
