package telemetry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/persist"
)

// SQLSink batches events into an EventStore. Rows are stamped with the run
// id and a per-run sequence number; batches are written in one transaction
// once FlushEvery rows are queued or FlushInterval passes.
type SQLSink struct {
	dropCounter
	store    persist.EventStore
	runID    uuid.UUID
	log      *zap.Logger
	every    int
	interval time.Duration
	queue    chan persist.EventRow
	done     chan struct{}
	once     sync.Once
	seq      uint64
	now      func() time.Time
}

// SQLOptions size the SQL sink. Zero values take defaults.
type SQLOptions struct {
	Buffer        int
	FlushEvery    int
	FlushInterval time.Duration
}

// NewSQLSink registers a new run in store and starts the batch writer.
func NewSQLSink(ctx context.Context, store persist.EventStore, seed, mapName string, opts SQLOptions, log *zap.Logger) (*SQLSink, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = 1024
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = 128
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	s := &SQLSink{
		store:    store,
		runID:    uuid.New(),
		log:      log,
		every:    opts.FlushEvery,
		interval: opts.FlushInterval,
		queue:    make(chan persist.EventRow, opts.Buffer),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	run := persist.RunRow{ID: s.runID, Seed: seed, MapName: mapName, StartedAt: s.now()}
	if err := store.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	go s.loop(context.WithoutCancel(ctx))
	return s, nil
}

// RunID identifies this run's rows.
func (s *SQLSink) RunID() uuid.UUID { return s.runID }

func (s *SQLSink) Dispatch(name string, payload any) {
	s.RecordEvent(name, Fields(payload))
}

// RecordEvent queues one row. Called from the tick goroutine only.
func (s *SQLSink) RecordEvent(name string, fields map[string]string) {
	s.seq++
	row := persist.EventRow{RunID: s.runID, Seq: s.seq, Name: name, Fields: fields, CreatedAt: s.now()}
	select {
	case s.queue <- row:
	default:
		s.drop()
	}
}

func (s *SQLSink) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	batch := make([]persist.EventRow, 0, s.every)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.store.InsertEvents(ctx, batch); err != nil {
			s.log.Error("telemetry batch failed", zap.Int("rows", len(batch)), zap.Error(err))
			s.dropCounter.n.Add(uint64(len(batch)))
		}
		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case row, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, row)
			if len(batch) >= s.every {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close flushes queued rows and stops the writer.
func (s *SQLSink) Close() error {
	s.once.Do(func() { close(s.queue) })
	<-s.done
	return nil
}

// Fields flattens a payload into string fields for row-oriented sinks.
// Unknown payload types give an empty map.
func Fields(payload any) map[string]string {
	switch p := payload.(type) {
	case nil:
		return nil
	case map[string]string:
		return p
	case interface{ Fields() map[string]string }:
		return p.Fields()
	case string:
		return map[string]string{"value": p}
	case int:
		return map[string]string{"value": strconv.Itoa(p)}
	}
	return map[string]string{}
}
