package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Message is a serialisable event handed to a broker.
type Message struct {
	ID      string
	Kind    string
	Payload interface{}
}

// Publisher delivers messages to the notification collaborator.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes messages to the logger instead of a broker.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher returns a publisher for environments without a broker.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the encoded message.
func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	p.logger.Info("notification emitted",
		zap.String("message_id", msg.ID),
		zap.String("kind", msg.Kind),
		zap.ByteString("payload", body),
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
