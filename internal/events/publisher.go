package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/exercisetracker/internal/domain"
)

// KafkaPublisher produces tracker events to Kafka. Publishing is best effort:
// broker errors are logged and never fail the originating request.
type KafkaPublisher struct {
	brokers []string
	timeout time.Duration

	mu     sync.Mutex
	writer *kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher for the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{brokers: brokers, timeout: 5 * time.Second}
}

// UserCreated implements domain.Publisher.
func (p *KafkaPublisher) UserCreated(ctx context.Context, user domain.UserRef, at time.Time) {
	p.publish(ctx, "user.created", user.ID, UserCreated{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: at,
	})
}

// ExerciseLogged implements domain.Publisher.
func (p *KafkaPublisher) ExerciseLogged(ctx context.Context, user domain.UserRef, exercise domain.Exercise, at time.Time) {
	p.publish(ctx, "exercise.logged", user.ID, ExerciseLogged{
		UserID:      user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		DurationMin: exercise.DurationMin,
		Date:        exercise.Date,
		LoggedAt:    at,
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal %s: %v", eventType, err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writerHandle().WriteMessages(writeCtx, msg); err != nil {
		log.Printf("events: produce %s: %v", eventType, err)
	}
}

func (p *KafkaPublisher) writerHandle() *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		p.writer = &kafka.Writer{
			Addr:         kafka.TCP(p.brokers...),
			Topic:        Topic,
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		}
	}
	return p.writer
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
