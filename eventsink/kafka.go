package eventsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ruteri/ans-registry/interfaces"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink produces one JSON record per event. Records are keyed by the
// node the event is about, so all events of a name land in one partition
// in order; events without a node are keyed by contract.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger
}

// NewKafkaSink connects to the brokers and checks that at least one answers.
func NewKafkaSink(ctx context.Context, brokers []string, topic string, log *slog.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("no kafka topic configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	return &KafkaSink{client: client, topic: topic, log: log}, nil
}

// Record builds the kafka record of an event.
func Record(ev interfaces.Event) (*kgo.Record, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	key := ev.Field("node")
	if key == "" {
		key = ev.Contract.String()
	}

	return &kgo.Record{
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(ev.Name)},
			{Key: "partition", Value: []byte(strconv.Itoa(int(ev.Partition)))},
		},
	}, nil
}

// Publish produces the batch and waits for the brokers to acknowledge it.
func (s *KafkaSink) Publish(ctx context.Context, events []interfaces.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, ev := range events {
		r, err := Record(ev)
		if err != nil {
			return fmt.Errorf("failed to encode event %d: %w", ev.Seq, err)
		}
		records = append(records, r)
	}

	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce %d events to %s: %w", len(records), s.topic, err)
	}
	s.log.Debug("events produced", "topic", s.topic, "count", len(records))
	return nil
}

// Close flushes buffered records and closes the client.
func (s *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
