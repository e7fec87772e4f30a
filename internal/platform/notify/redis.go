// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes notifications as JSON on a Redis pub/sub channel.
//
// Each publish runs on its own goroutine, detached from the caller's
// cancellation and bounded by timeout, so a slow Redis never delays the
// mutation that produced the notification.
type RedisSink struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  *slog.Logger
	pending sync.WaitGroup
}

// NewRedisSink creates a [RedisSink].
func NewRedisSink(client *redis.Client, channel string, timeout time.Duration, logger *slog.Logger) *RedisSink {
	return &RedisSink{client: client, channel: channel, timeout: timeout, logger: logger}
}

// Notify implements [Sink].
func (sink *RedisSink) Notify(ctx context.Context, notification Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		sink.logger.Error("notification_encode_failed", slog.Any("error", err))
		return
	}

	detached := context.WithoutCancel(ctx)

	sink.pending.Add(1)
	go func() {
		defer sink.pending.Done()

		publishCtx, cancel := context.WithTimeout(detached, sink.timeout)
		defer cancel()

		if err := sink.client.Publish(publishCtx, sink.channel, payload).Err(); err != nil {
			sink.logger.Warn("notification_publish_failed",
				slog.String("channel", sink.channel),
				slog.Any("error", err),
			)
		}
	}()
}

// Wait blocks until every in-flight publish has finished. It is called on
// shutdown.
func (sink *RedisSink) Wait() {
	sink.pending.Wait()
}
