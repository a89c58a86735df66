// Package jobs keeps the served chunk index current: a reloader that
// swaps in new index versions from a source, and the poller that drives
// it on a fixed interval.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/portola-retreat/concierge/internal/index"
)

// IndexReloader compares the source's version marker against the last
// one applied and swaps a freshly fetched index into the store when it
// changes.
type IndexReloader struct {
	source index.Source
	store  *index.Store

	lastVersion string
}

func NewIndexReloader(source index.Source, store *index.Store) *IndexReloader {
	return &IndexReloader{
		source: source,
		store:  store,
	}
}

// Refresh checks the source version and reloads on change. A fetch or
// validation failure leaves the current in-memory index serving, and the
// version marker does not advance so the next poll retries.
func (r *IndexReloader) Refresh(ctx context.Context) error {
	version, err := r.source.Version(ctx)
	if err != nil {
		return err
	}
	if version == r.lastVersion {
		return nil
	}

	idx, err := r.source.Fetch(ctx)
	if err != nil {
		return err
	}

	r.store.Swap(idx)
	r.lastVersion = version
	log.Printf("index reloaded: version=%s chunks=%d", version, len(idx.Chunks))
	return nil
}

// Refresher is the unit of work the poller drives on each tick.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller drives a Refresher on a fixed interval until stopped. A failed
// refresh is logged and retried on the next tick; it never ends the loop.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewPoller(refresher Refresher, interval time.Duration) *Poller {
	return &Poller{
		refresher: refresher,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start runs the refresh loop until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer close(p.doneChan)

	log.Printf("index refresh poller started (interval: %v)", p.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("index refresh poller stopped: context cancelled")
			return
		case <-p.stopChan:
			log.Println("index refresh poller stopped")
			return
		case <-ticker.C:
			if err := p.refresher.Refresh(ctx); err != nil {
				log.Printf("index refresh failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to drain.
func (p *Poller) Stop() {
	close(p.stopChan)
	<-p.doneChan
}
