// Package telemetry routes matcher audit events to the places operators
// watch: the structured log and a Redis stream for downstream consumers.
// Every sink is optional; the matcher runs unchanged with none attached.
package telemetry

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hie/mpi/internal/mpi"
)

// LogSink writes matcher events to the structured log. Ambiguous matches
// log at warn level since they usually mean duplicate upstream records.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(e mpi.Event) {
	evt := s.logger.Info()
	if e.Kind == mpi.EventAmbiguousMatch {
		evt = s.logger.Warn()
	}
	evt.
		Str("event", string(e.Kind)).
		Str("subject", e.SubjectSummary).
		Ints("candidates", e.CandidateIdx)
	if e.Rule != "" {
		evt = evt.Str("rule", e.Rule)
	}
	if e.Kind == mpi.EventAmbiguousMatch {
		evt = evt.Int("chosen", e.ChosenIdx)
	}
	evt.Msg("match event")
}

// redisStream is the stream matcher events are appended to.
const redisStream = "mpi:events"

// redisPublishTimeout bounds each XADD so a slow Redis cannot stall request
// handling.
const redisPublishTimeout = 2 * time.Second

// RedisSink appends matcher events to a Redis stream for asynchronous
// consumers (audit archival, duplicate-record workqueues). Publish errors
// are logged and dropped: telemetry must never fail a match request.
type RedisSink struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisSink(client *redis.Client, logger zerolog.Logger) *RedisSink {
	return &RedisSink{client: client, logger: logger}
}

func (s *RedisSink) Notify(e mpi.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), redisPublishTimeout)
	defer cancel()

	values := map[string]interface{}{
		"kind":    string(e.Kind),
		"subject": e.SubjectSummary,
	}
	if e.Rule != "" {
		values["rule"] = e.Rule
	}
	if e.Kind == mpi.EventAmbiguousMatch {
		values["chosen"] = e.ChosenIdx
		values["candidates"] = len(e.CandidateIdx)
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: redisStream,
		Values: values,
	}).Err(); err != nil {
		s.logger.Error().Err(err).Str("event", string(e.Kind)).Msg("failed to publish match event")
	}
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []mpi.EventSink

func (m MultiSink) Notify(e mpi.Event) {
	for _, s := range m {
		s.Notify(e)
	}
}
