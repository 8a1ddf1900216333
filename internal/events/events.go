// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events defines the structured event stream emitted by pipeline
// components. Components receive a Sink by injection rather than writing to
// process-wide logging state, so tests can assert on what was emitted and
// the ingest tracking artifact can replay a run's history.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type identifies what happened.
type Type string

const (
	// Run lifecycle.
	TypeRunStarted   Type = "run_started"
	TypeRunCompleted Type = "run_completed"
	TypeRunFailed    Type = "run_failed"

	// Extraction and validation.
	TypeStageExtracted    Type = "stage_extracted"
	TypeParseFailure      Type = "parse_failure"
	TypeValidationFailure Type = "validation_failure"

	// Duplicate handling.
	TypeDuplicateRejected Type = "duplicate_rejected"
	TypeDuplicateKey      Type = "duplicate_key"

	// Persistence and aggregation.
	TypeEntityInserted Type = "entity_inserted"
	TypeRunAggregated  Type = "run_aggregated"
	TypeStorageFailure Type = "storage_failure"

	// Collaborators.
	TypeSourceFailed Type = "source_failed"
	TypeReportFailed Type = "report_failed"
	TypeNotifyFailed Type = "notify_failed"
)

// Severity classifies an event for log routing.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one structured occurrence inside a run.
type Event struct {
	ID       string         `json:"id"`
	RunID    string         `json:"run_id,omitempty"`
	Type     Type           `json:"type"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Fields   map[string]any `json:"fields,omitempty"`
	Time     time.Time      `json:"time"`
}

// New builds an Event with a fresh ID and the current time.
func New(runID string, t Type, sev Severity, msg string, fields map[string]any) Event {
	return Event{
		ID:       uuid.NewString(),
		RunID:    runID,
		Type:     t,
		Severity: sev,
		Message:  msg,
		Fields:   fields,
		Time:     time.Now().UTC(),
	}
}

// Sink receives events. Implementations must be safe for use from a single
// goroutine; the pipeline is synchronous and never emits concurrently.
type Sink interface {
	Emit(Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(Event) {}

// OrDiscard returns s, or a Discard sink when s is nil, so components can
// emit unconditionally.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard{}
	}
	return s
}

// MemorySink records every event for later inspection. Used by tests and by
// the reports component to write the run tracking artifact.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Emit(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of everything emitted so far, in order.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByType returns the recorded events of type t, in order.
func (m *MemorySink) ByType(t Type) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ZapSink forwards events to a zap logger at the level matching their
// severity.
type ZapSink struct {
	log *zap.SugaredLogger
}

// NewZapSink wraps log in a Sink.
func NewZapSink(log *zap.SugaredLogger) *ZapSink {
	return &ZapSink{log: log}
}

func (z *ZapSink) Emit(e Event) {
	kv := []any{"event", string(e.Type), "run_id", e.RunID}
	for k, v := range e.Fields {
		kv = append(kv, k, v)
	}
	switch e.Severity {
	case SeverityDebug:
		z.log.Debugw(e.Message, kv...)
	case SeverityWarning:
		z.log.Warnw(e.Message, kv...)
	case SeverityError:
		z.log.Errorw(e.Message, kv...)
	default:
		z.log.Infow(e.Message, kv...)
	}
}

// Multi fans one event out to several sinks.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}
