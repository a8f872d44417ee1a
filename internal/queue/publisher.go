package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends booking events to RabbitMQ.  It dials per publish;
// confirmed bookings are infrequent enough that a pooled channel is not
// worth the reconnect handling.
type Publisher struct {
	url string
	log logrus.FieldLogger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log.WithField("component", "publisher")}
}

// PublishBookingConfirmed publishes ev to the booking.confirmed queue as
// a persistent message.  Errors are logged and returned so the caller
// can choose to ignore them.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	pub, err := newPublishing(ev, time.Now().UTC())
	if err != nil {
		p.log.WithError(err).Error("marshal event failed")
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Warn("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Warn("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareBookingQueue(ch); err != nil {
		p.log.WithError(err).Warn("queue declare failed")
		return err
	}

	if err := ch.PublishWithContext(ctx,
		"",           // default exchange
		BookingQueue, // routing key = queue name
		false,        // mandatory
		false,        // immediate
		pub,
	); err != nil {
		p.log.WithError(err).Warn("publish failed")
		return err
	}
	p.log.WithFields(logrus.Fields{
		"booking_id": ev.BookingID,
		"message_id": pub.MessageId,
	}).Debug("booking event published")
	return nil
}

func newPublishing(ev BookingConfirmedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Type:         BookingQueue,
		Body:         body,
	}, nil
}

// declareBookingQueue makes sure the durable queue exists.  Publisher and
// consumer must declare it with identical arguments.
func declareBookingQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		BookingQueue, // name
		true,         // durable
		false,        // autoDelete
		false,        // exclusive
		false,        // noWait
		nil,          // args
	)
	return err
}
