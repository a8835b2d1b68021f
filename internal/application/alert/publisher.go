package alert

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

// PublisherConfig controles operativos del publicador de alertas.
type PublisherConfig struct {
	Enabled         bool
	CheckInterval   time.Duration // periodo entre ciclos programados
	InitialDelay    time.Duration // espera única antes del primer ciclo
	PageSize        int
	MaxAlertsPerRun int // tope duro de items procesados por ciclo
}

// Publisher drena periódicamente el agregador y emite un mensaje al broker por
// cada alerta. Ciclo: IDLE → FETCHING_PAGE → PUBLISHING_PAGE → (siguiente
// página | IDLE), con gate de habilitación a la entrada. El paginado dentro de
// un ciclo es estrictamente secuencial; el envío de cada item es fire-and-forget
// (fallos por item se loguean y el ciclo continúa). No hay exclusión mutua entre
// el ciclo programado y el disparo manual: ambos pueden correr a la vez.
type Publisher struct {
	alerts Lister
	sender Sender
	cfg    PublisherConfig
	log    *logger.Logger
}

// NewPublisher construye el publicador.
func NewPublisher(alerts Lister, sender Sender, cfg PublisherConfig, log *logger.Logger) *Publisher {
	if cfg.PageSize < 1 {
		cfg.PageSize = 20
	}
	if cfg.MaxAlertsPerRun < 1 {
		cfg.MaxAlertsPerRun = 500
	}
	// time.NewTicker revienta con intervalo no positivo
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	return &Publisher{alerts: alerts, sender: sender, cfg: cfg, log: log}
}

// Run ejecuta el bucle programado hasta que el contexto se cancele:
// espera inicial única y luego un ciclo por intervalo.
func (p *Publisher) Run(ctx context.Context) {
	if p.cfg.InitialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.InitialDelay):
		}
	}

	ticker := time.NewTicker(p.cfg.CheckInterval)
	defer ticker.Stop()

	p.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle ejecuta un ciclo completo de detección y publicación. Nunca levanta
// error hacia el caller (el ciclo programado no tiene cliente interactivo):
// todo fallo se loguea. Devuelve la cantidad de mensajes entregados al broker.
func (p *Publisher) RunCycle(ctx context.Context) int {
	if !p.cfg.Enabled {
		return 0
	}

	sent, processed := 0, 0
	var totalFromFirstPage int64

	for page := 0; ; page++ {
		resp, err := p.alerts.GetAlerts(ctx, page, p.cfg.PageSize, dto.AlertModeAll)
		if err != nil {
			p.log.Error().Err(err).Int("page", page).Msg("fallo al consultar alertas, ciclo abortado")
			break
		}
		if len(resp.Items) == 0 {
			break
		}
		if page == 0 {
			totalFromFirstPage = resp.TotalItems
		}

		for _, item := range resp.Items {
			if processed >= p.cfg.MaxAlertsPerRun {
				p.log.Warn().
					Int("max_alerts_per_run", p.cfg.MaxAlertsPerRun).
					Msg("tope de alertas por ciclo alcanzado, se corta el ciclo")
				return sent
			}
			processed++

			msg := NewMessage(item)
			if err := p.sender.Send(ctx, item.ID, msg); err != nil {
				// Fallo por item: se loguea y el ciclo sigue, sin reintentos propios
				p.log.Warn().Err(err).
					Str("stock_id", item.ID).
					Str("severity", item.Severity).
					Msg("fallo al publicar alerta")
				continue
			}
			sent++
		}

		// La primera página fija el total de referencia para decidir si quedan páginas
		if int64(page+1)*int64(p.cfg.PageSize) >= totalFromFirstPage {
			break
		}
	}

	if sent > 0 {
		p.log.Info().Int("sent", sent).Int("processed", processed).Msg("ciclo de alertas publicado")
	}
	return sent
}

// TriggerAlertCheck dispara un ciclo bajo demanda, independiente de cualquier
// ciclo programado en vuelo, y devuelve los mensajes realmente entregados al
// broker. Ignora el gate Enabled: es intención explícita del operador.
func (p *Publisher) TriggerAlertCheck(ctx context.Context) (int, error) {
	cfg := p.cfg
	cfg.Enabled = true
	manual := &Publisher{alerts: p.alerts, sender: p.sender, cfg: cfg, log: p.log}
	return manual.RunCycle(ctx), nil
}
