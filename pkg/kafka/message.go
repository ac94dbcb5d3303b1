package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type Message struct {
	Key       string // partition key; loan events use the member ID so a member's events stay ordered
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSource        = "source"
	HeaderOriginalTopic = "original-topic"
	HeaderDLQError      = "dlq-error"
)

// NewJSONMessage encodes value as the payload of a new event.
func NewJSONMessage(key, eventType string, value any) (Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return Message{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			HeaderEventID:   uuid.NewString(),
			HeaderEventType: eventType,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}

func (m Message) EventID() string   { return m.Headers[HeaderEventID] }
func (m Message) EventType() string { return m.Headers[HeaderEventType] }

func (m Message) DecodeJSON(target any) error {
	if err := json.Unmarshal(m.Value, target); err != nil {
		return Permanent("failed to decode message payload", err)
	}
	return nil
}

func toKafkaMessage(m Message) kafka.Message {
	km := kafka.Message{
		Key:   []byte(m.Key),
		Value: m.Value,
		Time:  m.Timestamp,
	}
	for k, v := range m.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func fromKafkaMessage(km kafka.Message) Message {
	msg := Message{
		Key:       string(km.Key),
		Value:     km.Value,
		Headers:   make(map[string]string, len(km.Headers)),
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Timestamp: km.Time,
	}
	for _, h := range km.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}
