package models

import (
	"fmt"
	"time"
)

// Classification is the label assigned to a log record, exactly once.
type Classification string

const (
	ClassNormal       Classification = "normal"
	ClassAnomaly      Classification = "anomaly"
	ClassUnidentified Classification = "unidentified"
)

// Valid reports whether c is one of the three known classifications.
func (c Classification) Valid() bool {
	switch c {
	case ClassNormal, ClassAnomaly, ClassUnidentified:
		return true
	}
	return false
}

// LogRecord is the raw input unit consumed from the broker topic.
// Immutable once ingested.
type LogRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	LogLevel   string    `json:"log_level"`
	Message    string    `json:"message"`
	ParamValue string    `json:"param_value,omitempty"`
}

// Validate checks the fields required for a record to enter the pipeline.
// A failure is reported as *MalformedRecordError so callers can skip the
// record without stalling the stream.
func (r *LogRecord) Validate() error {
	if r.ID == "" {
		return &MalformedRecordError{Field: "id", Reason: "missing"}
	}
	if r.Timestamp.IsZero() {
		return &MalformedRecordError{ID: r.ID, Field: "timestamp", Reason: "missing or zero"}
	}
	if r.Message == "" {
		return &MalformedRecordError{ID: r.ID, Field: "message", Reason: "missing"}
	}
	return nil
}

// ClassifiedRecord is a LogRecord plus its classification. Created exactly
// once per LogRecord by the classifier and never mutated afterward; it is
// copied by value to every downstream consumer.
type ClassifiedRecord struct {
	LogRecord
	Classification Classification `json:"classification"`
	ClassifiedAt   time.Time      `json:"classified_at"`
}

// MalformedRecordError describes a record rejected by validation.
// It covers a single record; the stream continues past it.
type MalformedRecordError struct {
	ID     string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed record: field %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed record %s: field %s %s", e.ID, e.Field, e.Reason)
}
