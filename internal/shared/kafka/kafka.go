package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message = kafka.Message

// MessageWriter é o lado de escrita usado por producers e DLQ (*kafka.Writer satisfaz).
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageReader é o lado de leitura usado pelos workers (*kafka.Reader satisfaz).
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma aposta, mesma partição
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
	}
}

func NewReader(brokers []string, topic string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// WriteJSON serializa v e envia uma mensagem com a chave informada
func WriteJSON(ctx context.Context, w MessageWriter, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal kafka payload")
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	return errors.Wrap(w.WriteMessages(ctx, msg), "write kafka message")
}

func ReadNext(ctx context.Context, r MessageReader) (kafka.Message, error) {
	m, err := r.ReadMessage(ctx)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "read kafka message")
	}
	return m, nil
}

// EnsureTopics cria os tópicos via controller do cluster; usado só em local/dev.
// Tópicos já existentes são ignorados.
func EnsureTopics(ctx context.Context, log *zap.Logger, brokers []string, topics ...string) error {
	if len(brokers) == 0 {
		return errors.New("kafka brokers not provided")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return errors.Wrap(err, "dial kafka")
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return errors.Wrap(err, "kafka controller")
	}
	cconn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return errors.Wrap(err, "dial kafka controller")
	}
	defer cconn.Close()

	for _, topic := range topics {
		// particionamento e replicação compatíveis com single-broker
		err := cconn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
		switch {
		case err == nil:
			log.Info("kafka topic created", zap.String("topic", topic))
		case errors.Is(err, kafka.TopicAlreadyExists) || strings.Contains(err.Error(), "already exists"):
		default:
			return errors.Wrapf(err, "create topic %s", topic)
		}
	}
	return nil
}
