package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/almacen-api/internal/application/alert"
	"github.com/jhoicas/almacen-api/pkg/config"
	"github.com/jhoicas/almacen-api/pkg/logger"
	"github.com/streadway/amqp"
)

const publishTimeout = 5 * time.Second

var _ alert.Sender = (*Publisher)(nil)

// Publisher adaptador del puerto Sender sobre RabbitMQ. Canal productor en
// modo confirm: Send espera el ack del broker (o timeout) antes de devolver.
// La fiabilidad extremo a extremo sigue siendo best-effort: el pipeline de
// alertas loguea y continúa ante cualquier error de publicación.
type Publisher struct {
	cfg config.BrokerConfig
	log *logger.Logger

	mu            sync.Mutex
	conn          *amqp.Connection
	channel       *amqp.Channel
	notifyConfirm chan amqp.Confirmation
}

// NewPublisher conecta al broker y declara el exchange de alertas.
func NewPublisher(cfg config.BrokerConfig, log *logger.Logger) (*Publisher, error) {
	p := &Publisher{cfg: cfg, log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("abrir canal productor: %w", err)
	}
	if err := channel.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("activar confirm mode: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("declarar exchange %s: %w", p.cfg.Exchange, err)
	}

	p.mu.Lock()
	p.conn = conn
	p.channel = channel
	p.notifyConfirm = channel.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.mu.Unlock()

	p.log.Info().
		Str("exchange", p.cfg.Exchange).
		Str("routing_key", p.cfg.RoutingKey).
		Msg("publicador RabbitMQ conectado")
	return nil
}

// Send publica una alerta con el id del registro como message key.
// Reconecta perezosamente si la conexión se cayó.
func (p *Publisher) Send(ctx context.Context, key string, msg alert.Message) error {
	p.mu.Lock()
	if p.conn == nil || p.conn.IsClosed() {
		p.mu.Unlock()
		if err := p.connect(); err != nil {
			return err
		}
		p.mu.Lock()
	}
	channel := p.channel
	confirm := p.notifyConfirm
	p.mu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alerta: %w", err)
	}

	err = channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     msg.MessageID,
			CorrelationId: key,
			Body:          body,
			Timestamp:     time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publicar alerta: %w", err)
	}

	select {
	case c := <-confirm:
		if c.Ack {
			return nil
		}
		return errors.New("mensaje publicado pero no confirmado por el broker")
	case <-time.After(publishTimeout):
		return errors.New("timeout esperando confirmación del broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cierra canal y conexión.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
}
