package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
)

// AMQP dispatches jobs through a durable broker queue so the gateway and the
// pipeline workers can run as separate processes. Messages are persistent and
// acknowledged only after the handler returns, so a worker crash requeues
// nothing silently: an unacked delivery goes back to the broker.
type AMQP struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queueName   string
	concurrency int
	logger      *slog.Logger
}

// NewAMQP connects to the broker and declares the durable job queue.
func NewAMQP(cfg *config.Config, logger *slog.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.Dispatch.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := channel.QueueDeclare(cfg.Dispatch.QueueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Dispatch.QueueName, err)
	}
	concurrency := cfg.Dispatch.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if err := channel.Qos(concurrency, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	return &AMQP{
		conn:        conn,
		channel:     channel,
		queueName:   cfg.Dispatch.QueueName,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "dispatch"),
	}, nil
}

// Publish serializes the job and enqueues it as a persistent message.
func (d *AMQP) Publish(ctx context.Context, job queue.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return d.channel.PublishWithContext(ctx, "", d.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Body:         body,
	})
}

// Run consumes deliveries with a worker pool. Undecodable payloads are
// rejected without requeue; handler failures are also rejected without
// requeue because the pipeline already spent its own retry budget and
// notified the submitter.
func (d *AMQP) Run(ctx context.Context, handler Handler) error {
	deliveries, err := d.channel.Consume(d.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", d.queueName, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < d.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case delivery, ok := <-deliveries:
					if !ok {
						return
					}
					d.handleDelivery(ctx, delivery, handler)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (d *AMQP) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler Handler) {
	var job queue.Job
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		d.logger.Error("discarding undecodable job payload",
			logging.String("message_id", delivery.MessageId),
			logging.Error(err),
		)
		if err := delivery.Nack(false, false); err != nil {
			d.logger.Error("nack failed", logging.Error(err))
		}
		return
	}

	if err := handler(ctx, job); err != nil {
		d.logger.Error("job handler failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		if err := delivery.Nack(false, false); err != nil {
			d.logger.Error("nack failed", logging.Error(err))
		}
		return
	}
	if err := delivery.Ack(false); err != nil {
		d.logger.Error("ack failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
}

// Close shuts down the channel and connection.
func (d *AMQP) Close() error {
	if err := d.channel.Close(); err != nil {
		d.conn.Close()
		return err
	}
	return d.conn.Close()
}
