// Package maintenance runs the periodic expiry sweep against the durable
// store.
package maintenance

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweepable deletes expired cache entries and reports how many went.
type Sweepable interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper invokes SweepExpired on a fixed cadence. The sweep is idempotent
// and safe to run while requests are in flight; a concurrent read simply
// sees the pre- or post-sweep row.
type Sweeper struct {
	store    Sweepable
	interval time.Duration

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a Sweeper with the given interval between sweeps.
func New(store Sweepable, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	n, err := s.store.SweepExpired(context.Background())
	if err != nil {
		log.Printf("expiry sweep: %v", err)
		return
	}
	if n > 0 {
		log.Printf("expiry sweep removed %d entries", n)
	}
}
