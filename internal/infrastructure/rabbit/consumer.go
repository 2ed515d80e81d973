// Package rabbit consume los eventos AMQP que alimentan el motor de reservas:
// transiciones de cotización y confirmaciones de entrega. Cada resultado se
// publica en la cola de resultados para el servicio emisor.
package rabbit

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/pkg/config"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

// Consumer conecta las colas de eventos con los casos de uso del motor.
type Consumer struct {
	cfg   config.RabbitConfig
	conn  *amqp.Connection
	ch    *amqp.Channel
	res   *reservation.UseCase
	alloc *allocation.UseCase
	log   *logger.Logger
}

// NewConsumer abre conexión y canal, y declara las colas durables.
func NewConsumer(cfg config.RabbitConfig, res *reservation.UseCase, alloc *allocation.UseCase, log *logger.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	c := &Consumer{cfg: cfg, conn: conn, ch: ch, res: res, alloc: alloc, log: log}
	for _, q := range []string{cfg.QueueQuotationState, cfg.QueueDelivery, cfg.QueueResult} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close cierra canal y conexión.
func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Mensajes
type quotationStateEvent struct {
	QuotationID   string     `json:"quotation_id"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	Lines         []planLine `json:"lines"`
	ForceOverride bool       `json:"force_override"`
	ActorID       string     `json:"actor_id"`
}

type planLine struct {
	ProductID     string `json:"product_id"`
	QuantityUnits string `json:"quantity_units"`
	DosesPerUnit  string `json:"doses_per_unit"`
	WeekFrom      int    `json:"week_from"`
	WeekTo        int    `json:"week_to"`
}

type deliveryEvent struct {
	CalendarAppID string `json:"calendar_app_id"`
	Quantity      string `json:"quantity"`
	ActorID       string `json:"actor_id"`
}

type resultEvent struct {
	QuotationID   string `json:"quotation_id,omitempty"`
	CalendarAppID string `json:"calendar_app_id,omitempty"`
	State         string `json:"state"`
	Reason        string `json:"reason,omitempty"`
}

func (c *Consumer) publishResult(ctx context.Context, ev resultEvent) {
	body, _ := json.Marshal(ev)
	err := c.ch.PublishWithContext(ctx, "", c.cfg.QueueResult, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("rabbit: publicar resultado falló")
	}
}

// StartConsumers arranca los lazos de consumo en goroutines.
func (c *Consumer) StartConsumers(ctx context.Context) error {
	if err := c.consumeQuotationState(ctx); err != nil {
		return err
	}
	return c.consumeDelivery(ctx)
}

func (c *Consumer) consumeQuotationState(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.cfg.QueueQuotationState, "planvacunal-transition-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for m := range msgs {
			var ev quotationStateEvent
			if err := json.Unmarshal(m.Body, &ev); err != nil {
				c.log.Error().Err(err).Msg("transition: json inválido")
				_ = m.Ack(false)
				continue
			}
			c.log.Info().Str("quotation", ev.QuotationID).Str("to", ev.To).Msg("transition: recibido")

			in, err := toTransitionInput(ev)
			if err == nil {
				_, err = c.res.HandleTransition(ctx, in)
			}
			res := resultEvent{QuotationID: ev.QuotationID, State: "APPLIED"}
			if err != nil {
				res.State = "FAILED"
				res.Reason = err.Error()
			}
			c.publishResult(ctx, res)
			_ = m.Ack(false)
		}
	}()
	return nil
}

func (c *Consumer) consumeDelivery(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.cfg.QueueDelivery, "planvacunal-delivery-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for m := range msgs {
			var ev deliveryEvent
			if err := json.Unmarshal(m.Body, &ev); err != nil {
				c.log.Error().Err(err).Msg("delivery: json inválido")
				_ = m.Ack(false)
				continue
			}
			c.log.Info().Str("application", ev.CalendarAppID).Msg("delivery: recibido")

			res := resultEvent{CalendarAppID: ev.CalendarAppID, State: "APPLIED"}
			qty, err := decimalFromString(ev.Quantity)
			if err == nil {
				_, err = c.alloc.ConfirmDelivery(ctx, ev.CalendarAppID, qty, ev.ActorID)
			}
			if err != nil {
				res.State = "FAILED"
				res.Reason = err.Error()
			}
			c.publishResult(ctx, res)
			_ = m.Ack(false)
		}
	}()
	return nil
}

func toTransitionInput(ev quotationStateEvent) (reservation.TransitionInput, error) {
	in := reservation.TransitionInput{
		QuotationID:   ev.QuotationID,
		From:          entity.QuotationState(ev.From),
		To:            entity.QuotationState(ev.To),
		ForceOverride: ev.ForceOverride,
		ActorID:       ev.ActorID,
	}
	for _, l := range ev.Lines {
		units, err := decimalFromString(l.QuantityUnits)
		if err != nil {
			return in, err
		}
		doses, err := decimalFromString(l.DosesPerUnit)
		if err != nil {
			return in, err
		}
		in.Lines = append(in.Lines, entity.PlanLine{
			ProductID:     l.ProductID,
			QuantityUnits: units,
			DosesPerUnit:  doses,
			WeekFrom:      l.WeekFrom,
			WeekTo:        l.WeekTo,
		})
	}
	return in, nil
}
