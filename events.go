package sproutbank

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// TxnPublisher is notified after a ledger write commits. A nil publisher
// disables events.
type TxnPublisher interface {
	PublishTransaction(ctx context.Context, txn Transaction) error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

var (
	_ TxnPublisher = (*KafkaPublisher)(nil)
)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) PublishTransaction(ctx context.Context, txn Transaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(txn.AccountID.String()),
		Value: data,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
