package kafka

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

const BookEventsTopic = "book-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"book-events"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewAsyncProducer(cfg Config) (sarama.AsyncProducer, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Producer.RequiredAcks = sarama.WaitForLocal
	defaultCfg.Producer.Return.Errors = true
	defaultCfg.Producer.Flush.Frequency = 500 * time.Millisecond

	return sarama.NewAsyncProducer(cfg.Addrs, defaultCfg)
}

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

type EventBook struct {
	Timestamp time.Time `json:"timestamp"`
	Session   string    `json:"session"`
	Action    Action    `json:"action"`
	BookID    string    `json:"bookId,omitempty"`
	Title     string    `json:"title,omitempty"`
}

type EventLog interface {
	Log(ev EventBook) error
}

type eventLog struct {
	producer sarama.AsyncProducer
	topic    string
}

func NewEventLog(producer sarama.AsyncProducer, topic string) EventLog {
	if producer == nil {
		return Discard
	}
	if topic == "" {
		topic = BookEventsTopic
	}
	return &eventLog{producer: producer, topic: topic}
}

func (l *eventLog) Log(ev EventBook) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: l.topic,
		Key:   sarama.StringEncoder(ev.Session),
		Value: sarama.ByteEncoder(data),
	}
	l.producer.Input() <- msg
	return nil
}

type discard struct{}

func (discard) Log(EventBook) error { return nil }

// Discard drops every event. Used when no brokers are configured.
var Discard EventLog = discard{}
