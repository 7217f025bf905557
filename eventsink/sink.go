package eventsink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ruteri/ans-registry/interfaces"
)

// LogSink writes every event to a logger.
type LogSink struct {
	log   *slog.Logger
	level slog.Level
}

func NewLogSink(log *slog.Logger, level slog.Level) *LogSink {
	return &LogSink{log: log, level: level}
}

func (s *LogSink) Publish(ctx context.Context, events []interfaces.Event) error {
	for _, ev := range events {
		attrs := make([]any, 0, 2*len(ev.Fields)+8)
		attrs = append(attrs,
			"partition", ev.Partition,
			"seq", ev.Seq,
			"tx", ev.TxID,
			"contract", ev.Contract.String())
		for k, v := range ev.Fields {
			attrs = append(attrs, k, v)
		}
		s.log.Log(ctx, s.level, ev.Name, attrs...)
	}
	return nil
}

func (s *LogSink) Close() error {
	return nil
}

// MultiSink publishes to several sinks. Every sink sees every batch even if
// an earlier one failed.
type MultiSink []interfaces.EventSink

func (m MultiSink) Publish(ctx context.Context, events []interfaces.Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
