// Package service holds background and fire-and-forget pieces that sit
// between the HTTP handlers and external systems: the RabbitMQ event
// publisher and the showtime sweeper.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/cinetick/movie-booking-api/internal/queue"
)

// PublishEvent publishes a notification envelope to the durable
// booking.events queue. Handlers call this after their transaction has
// committed and ignore the returned error: a broker outage must never
// fail a request whose database work already succeeded. Messages are
// marked persistent so they survive broker restarts.
func PublishEvent(ctx context.Context, env q.Envelope) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		"booking.events", // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		"booking.events", // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
