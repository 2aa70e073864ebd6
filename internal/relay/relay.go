/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"multisig-wallet-go/internal/models"

	"go.uber.org/zap"
)

// EventSource reads the global event log in sequence order.
type EventSource interface {
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]models.Event, error)
}

// Sink receives events in sequence order. An error stops the batch; the
// failed event is redelivered on the next poll.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e models.Event) error
}

// Config contains configuration for Relay
type Config struct {
	Source          EventSource
	Sinks           []Sink
	PollingInterval time.Duration
	BatchSize       int
	StartAfterSeq   int64
}

// Relay polls the event log after a cursor and fans events out to sinks.
// Delivery is at-least-once per sink.
type Relay struct {
	source          EventSource
	sinks           []Sink
	pollingInterval time.Duration
	batchSize       int

	mutex  sync.RWMutex
	cursor int64

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func New(cfg Config) *Relay {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	interval := cfg.PollingInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Relay{
		source:          cfg.Source,
		sinks:           cfg.Sinks,
		pollingInterval: interval,
		batchSize:       batch,
		cursor:          cfg.StartAfterSeq,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start begins polling in the background.
func (r *Relay) Start(ctx context.Context) error {
	if r.source == nil {
		return errors.New("relay has no event source")
	}
	if len(r.sinks) == 0 {
		return errors.New("relay has no sinks")
	}

	go r.pollLoop(ctx)

	zap.L().Info("Event relay started",
		zap.Duration("polling_interval", r.pollingInterval),
		zap.Int("batch_size", r.batchSize),
		zap.Int64("cursor", r.Cursor()),
		zap.Int("sinks", len(r.sinks)))
	return nil
}

// Stop gracefully stops the relay and waits for the current poll to finish.
func (r *Relay) Stop() {
	zap.L().Info("Stopping event relay")
	r.stopOnce.Do(func() { close(r.stopChan) })
	<-r.doneChan
	zap.L().Info("Event relay stopped", zap.Int64("cursor", r.Cursor()))
}

// Cursor is the sequence number of the last event delivered to every sink.
func (r *Relay) Cursor() int64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.cursor
}

func (r *Relay) pollLoop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	r.drain(ctx)

	for {
		select {
		case <-ticker.C:
			r.drain(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain polls until a short batch shows the log is caught up.
func (r *Relay) drain(ctx context.Context) {
	for {
		n, err := r.PollOnce(ctx)
		if err != nil {
			zap.L().Error("Event relay poll failed", zap.Int64("cursor", r.Cursor()), zap.Error(err))
			return
		}
		if n < r.batchSize {
			return
		}
		select {
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}
	}
}

// PollOnce delivers one batch and returns the number of events delivered.
func (r *Relay) PollOnce(ctx context.Context) (int, error) {
	cursor := r.Cursor()
	events, err := r.source.ListEvents(ctx, cursor, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list events: %w", err)
	}

	delivered := 0
	for _, e := range events {
		for _, sink := range r.sinks {
			if err := sink.Deliver(ctx, e); err != nil {
				return delivered, fmt.Errorf("sink %s failed on event %d: %w", sink.Name(), e.Seq, err)
			}
		}
		r.mutex.Lock()
		r.cursor = e.Seq
		r.mutex.Unlock()
		delivered++
	}

	if delivered > 0 {
		zap.L().Debug("Relayed events", zap.Int("count", delivered), zap.Int64("cursor", r.Cursor()))
	}
	return delivered, nil
}
