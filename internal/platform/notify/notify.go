// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify delivers user-visible feedback about mutations.

Services report outcomes to a [Sink] ("Post created", "Tags could not be
attached") and never wait for presentation. Implementations must not block
the calling mutation.

Sinks:

  - [LogSink]: writes notifications to the structured logger.
  - [RedisSink]: publishes JSON notifications on a Redis pub/sub channel.
  - [Multi]: fans out to several sinks.
  - [Discard]: drops everything.
*/
package notify

import (
	"context"
	"log/slog"
)

// Severity grades a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one user-visible message.
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`
}

// Success builds a success notification.
func Success(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeveritySuccess}
}

// Warning builds a warning notification.
func Warning(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeverityWarning}
}

// Failure builds an error notification.
func Failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: SeverityError}
}

// Sink receives notifications. Notify must return promptly.
type Sink interface {
	Notify(ctx context.Context, notification Notification)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, notification Notification)

// Notify implements [Sink].
func (f SinkFunc) Notify(ctx context.Context, notification Notification) {
	f(ctx, notification)
}

// Discard is a [Sink] that drops every notification.
var Discard Sink = SinkFunc(func(context.Context, Notification) {})

// # Log Sink

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a [LogSink].
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements [Sink].
func (sink *LogSink) Notify(ctx context.Context, notification Notification) {
	level := slog.LevelInfo
	switch notification.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}

	sink.logger.LogAttrs(ctx, level, "notification",
		slog.String("title", notification.Title),
		slog.String("description", notification.Description),
		slog.String("severity", string(notification.Severity)),
	)
}

// # Fan-out

type multi []Sink

// Multi returns a [Sink] that forwards every notification to each of sinks in
// order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var kept multi
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return kept
}

// Notify implements [Sink].
func (m multi) Notify(ctx context.Context, notification Notification) {
	for _, sink := range m {
		sink.Notify(ctx, notification)
	}
}
