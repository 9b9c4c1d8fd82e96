package obd

import (
	"context"
	"sync"
	"time"

	"gobd/internal/models"
	"gobd/pkg/log"

	"go.uber.org/zap"
)

// SnapshotFunc receives each snapshot produced by the Poller. It runs on the
// poller's worker goroutine, synchronously, before the next tick is
// scheduled; a callback that blocks stalls polling.
type SnapshotFunc func(models.Snapshot)

// stopTimeout bounds how long Stop waits for the worker to observe
// cancellation before giving up the join.
const stopTimeout = 5 * time.Second

// Poller runs a single background worker that builds a sensor snapshot on a
// fixed interval and hands it to a callback. PIDs are read sequentially
// within one tick because the Connector is a single-owner resource.
type Poller struct {
	reader *Reader

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(reader *Reader) *Poller {
	return &Poller{reader: reader}
}

// Start transitions the poller to Running and begins the loop. Starting an
// already-running poller is a no-op: the live worker keeps going and no
// second worker is spawned. keys defaults to every scalar registry key in
// registry order; unknown keys are rejected before any worker starts.
func (p *Poller) Start(cb SnapshotFunc, interval time.Duration, keys ...string) error {
	if len(keys) == 0 {
		keys = ScanKeys()
	}
	for _, key := range keys {
		if _, err := Lookup(key); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		log.Debug("poller already running, start ignored")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.loop(ctx, done, cb, interval, keys)

	log.Info("poller started",
		zap.Duration("interval", interval),
		zap.Int("keys", len(keys)))
	return nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}, cb SnapshotFunc, interval time.Duration, keys []string) {
	defer close(done)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		snap := models.NewSnapshot(keys)
		for _, key := range keys {
			// Checked before every read to keep shutdown latency below
			// one Connector round-trip.
			if ctx.Err() != nil {
				return
			}
			reading, err := p.reader.ReadPID(key)
			if err != nil {
				// Keys were validated in Start; this only fires on a
				// multi-field key slipping through, which is a defect.
				log.Error("poll read rejected", zap.String("key", key), zap.Error(err))
				continue
			}
			snap.Readings[key] = reading
		}
		snap.Timestamp = time.Now()

		cb(snap)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Stop signals cancellation and blocks until the worker exits, bounded by
// stopTimeout. Stopping an idle poller is a no-op. After Stop returns the
// poller can be started again.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.cancel = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()

	select {
	case <-done:
		log.Info("poller stopped")
	case <-time.After(stopTimeout):
		log.Warn("poller worker did not exit before timeout")
	}
}

// Running reports whether a worker is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
