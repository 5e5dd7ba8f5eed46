package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

const (
	ExchangeName = "etheron.settlement"
	ExchangeType = "topic"
)

// SetupConn handles the connection and exchange declaration.
func SetupConn(url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	// Simple retry logic for container startup
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d): %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return nil, nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	return conn, ch, nil
}

type publisher struct {
	ch *amqp.Channel
}

// NewPublisher creates a new SettlementPublisher implementation using RabbitMQ.
func NewPublisher(ch *amqp.Channel) domain.SettlementPublisher {
	return &publisher{ch: ch}
}

// PublishSettlement broadcasts each finalized record on the topic exchange.
// Routing key: settlement.<kind> (e.g., settlement.purchase)
func (p *publisher) PublishSettlement(ctx context.Context, records []domain.Transaction) error {
	for _, record := range records {
		body, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("could not marshal settlement record: %w", err)
		}

		routingKey := "settlement." + strings.ToLower(string(record.Kind))

		err = p.ch.PublishWithContext(ctx,
			ExchangeName, // exchange
			routingKey,   // routing key
			false,        // mandatory
			false,        // immediate
			amqp.Publishing{
				ContentType: "application/json",
				Body:        body,
			},
		)
		if err != nil {
			return fmt.Errorf("could not publish settlement record %s: %w", record.ID, err)
		}
	}

	return nil
}
