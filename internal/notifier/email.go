package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const emailTopic = "notification-emails"

type emailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	IsHTML  bool   `json:"is_html"`
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// EmailPublisher hands email off to the notification service via kafka. A
// circuit breaker keeps a dead broker from stalling request goroutines;
// while the breaker is open sends fail fast and are only logged by callers.
type EmailPublisher struct {
	writer  kafkaWriter
	breaker *gobreaker.CircuitBreaker[any]
}

func NewEmailPublisher(brokers ...string) *EmailPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  emailTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newEmailPublisher(w)
}

func newEmailPublisher(w kafkaWriter) *EmailPublisher {
	settings := gobreaker.Settings{
		Name: "email-publisher",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("%s breaker: %s -> %s", name, from, to)
		},
	}
	return &EmailPublisher{
		writer:  w,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (p *EmailPublisher) SendEmail(ctx context.Context, to, subject, body string, isHTML bool) error {
	payload, err := json.Marshal(emailMessage{
		To:      to,
		Subject: subject,
		Body:    body,
		IsHTML:  isHTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(to),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("email-requested")},
		},
	}

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish email for %s: %w", to, err)
	}
	return nil
}

// Close flushes and closes the underlying kafka writer, when there is one.
func (p *EmailPublisher) Close() {
	if w, ok := p.writer.(*kafka.Writer); ok {
		if err := w.Close(); err != nil {
			log.Printf("error closing kafka writer: %v", err)
		}
	}
}
