package telemetry

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

type line struct {
	name    string
	payload any
	fields  map[string]string
}

// JSONLSink writes one JSON object per event from a background goroutine.
// Lines look like {"event":name, ...}: fields are inlined, payloads go under
// "data".
type JSONLSink struct {
	dropCounter
	w     *bufio.Writer
	queue chan line
	done  chan struct{}
	log   *zap.Logger
	once  sync.Once
}

// NewJSONLSink starts the writer. buffer bounds the queue.
func NewJSONLSink(w io.Writer, buffer int, log *zap.Logger) *JSONLSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &JSONLSink{
		w:     bufio.NewWriter(w),
		queue: make(chan line, buffer),
		done:  make(chan struct{}),
		log:   log,
	}
	go s.loop()
	return s
}

func (s *JSONLSink) Dispatch(name string, payload any) {
	s.enqueue(line{name: name, payload: payload})
}

func (s *JSONLSink) RecordEvent(name string, fields map[string]string) {
	s.enqueue(line{name: name, fields: fields})
}

func (s *JSONLSink) enqueue(l line) {
	select {
	case s.queue <- l:
	default:
		s.drop()
	}
}

func (s *JSONLSink) loop() {
	defer close(s.done)
	enc := json.NewEncoder(s.w)
	for l := range s.queue {
		obj := make(map[string]any, len(l.fields)+2)
		for k, v := range l.fields {
			obj[k] = v
		}
		if l.payload != nil {
			obj["data"] = l.payload
		}
		obj["event"] = l.name
		if err := enc.Encode(obj); err != nil {
			s.log.Warn("telemetry write failed", zap.String("event", l.name), zap.Error(err))
			s.drop()
		}
		if len(s.queue) == 0 {
			if err := s.w.Flush(); err != nil {
				s.log.Warn("telemetry flush failed", zap.Error(err))
			}
		}
	}
	if err := s.w.Flush(); err != nil {
		s.log.Warn("telemetry flush failed", zap.Error(err))
	}
}

// Close drains the queue and flushes. Events sent after Close panic, so
// the host closes sinks only after the tick loop has stopped.
func (s *JSONLSink) Close() error {
	s.once.Do(func() { close(s.queue) })
	<-s.done
	return nil
}
