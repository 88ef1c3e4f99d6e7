package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"vacmetrics/internal/ingest/service"
)

// KafkaPublisher emits batch outcome events so downstream consumers (alerting,
// audit, reconciliation) can follow ingestion without polling the database.
// Events are keyed by client so one tenant's outcomes stay ordered.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(ctx context.Context, brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	_, err := adm.CreateTopic(ctx, 1, -1, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("ensure topic %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) PublishBatchOutcome(ctx context.Context, outcome service.BatchOutcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal batch outcome: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(outcome.ClientID, 10)),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce batch outcome: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
