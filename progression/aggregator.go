// progression/aggregator.go - client-side click batching and flushing
package progression

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"clickmill/ledger"
)

// Submitter performs the authoritative write of a full click total. The
// write carries the absolute new total rather than a delta, which makes a
// duplicate submission harmless.
type Submitter interface {
	SubmitTotal(ctx context.Context, userID uint, newTotal int64) (int64, error)
}

// TokenSource refreshes the credential backing the submitter. The
// aggregator calls it at most once per flush, on an authentication failure.
type TokenSource interface {
	Refresh(ctx context.Context) error
}

const (
	// Backoff seed and ceiling for the flush scheduler.
	backoffSeed = 200 * time.Millisecond
	backoffCap  = 5 * time.Second
)

// nextBackoff grows the inter-flush delay super-linearly:
// min(cap, 1.5·d + d), starting from the seed. The caller resets to the seed
// once the pending queue drains.
func nextBackoff(d time.Duration) time.Duration {
	if d <= 0 {
		return backoffSeed
	}
	d += d + d/2
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// Aggregator buffers rapid click increments for one user and flushes them as
// single authoritative writes. The visible total is always
// confirmed + pending, so feedback is immediate; a dedicated worker
// goroutine keeps at most one flush in flight.
type Aggregator struct {
	userID uint
	submit Submitter
	tokens TokenSource

	mu        sync.Mutex
	confirmed int64
	pending   int64
	delay     time.Duration

	// wake starts an idle worker; flushNow additionally cancels a scheduled
	// backoff wait. Only an explicit Flush fills flushNow: ordinary enqueues
	// must never shorten the delay, or bursty input would defeat the
	// throttling entirely.
	wake     chan struct{}
	flushNow chan struct{}
	done     chan struct{}
	stopped  chan struct{}

	// OnError receives terminal (post-retry) flush failures. Optional.
	OnError func(error)
}

// NewAggregator starts the flush worker. confirmed seeds the local view with
// the last known authoritative total. Close releases the worker.
func NewAggregator(userID uint, confirmed int64, submit Submitter, tokens TokenSource) *Aggregator {
	a := &Aggregator{
		userID:    userID,
		submit:    submit,
		tokens:    tokens,
		confirmed: confirmed,
		wake:      make(chan struct{}, 1),
		flushNow:  make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Enqueue adds clicks to the pending counter and starts a flush cycle if the
// worker is idle. A cycle already running or waiting out its backoff picks
// the clicks up on its own schedule.
func (a *Aggregator) Enqueue(amount int64) {
	if amount <= 0 {
		return
	}
	a.mu.Lock()
	a.pending += amount
	a.mu.Unlock()
	a.signal()
}

// Flush requests an immediate flush, cancelling a scheduled backoff wait.
func (a *Aggregator) Flush() {
	select {
	case a.flushNow <- struct{}{}:
	default:
	}
	a.signal()
}

// Visible returns the optimistic running total shown to the user.
func (a *Aggregator) Visible() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.confirmed + a.pending
}

// Confirmed returns the last total the ledger acknowledged.
func (a *Aggregator) Confirmed() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.confirmed
}

// Pending returns the clicks not yet durable.
func (a *Aggregator) Pending() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Close stops the worker. Pending clicks are not flushed.
func (a *Aggregator) Close() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	<-a.stopped
}

func (a *Aggregator) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// run is the single-flight worker: it owns every in-flight flush for this
// user, so no guard beyond the loop itself is needed.
func (a *Aggregator) run() {
	defer close(a.stopped)
	for {
		select {
		case <-a.done:
			return
		case <-a.wake:
		}

		for {
			a.mu.Lock()
			if a.pending == 0 {
				// Queue drained: the next flush starts over from the seed.
				// Only a brand-new aggregator flushes with no delay at all;
				// once a write has happened, every later one waits at least
				// the seed so drain-refill cycles cannot write unbounded.
				a.delay = backoffSeed
				a.mu.Unlock()
				break
			}
			wait := a.delay
			a.mu.Unlock()

			if wait > 0 && !a.sleep(wait) {
				return
			}

			// The upcoming write satisfies any explicit flush request made up
			// to this point, so it must not also cancel the next wait.
			select {
			case <-a.flushNow:
			default:
			}

			if err := a.flushOnce(); err != nil {
				// Pending clicks are preserved; the next enqueue or explicit
				// Flush retriggers naturally.
				log.Printf("flush failed for user %d: %v", a.userID, err)
				if a.OnError != nil {
					a.OnError(err)
				}
				break
			}

			a.mu.Lock()
			if a.pending > 0 {
				a.delay = nextBackoff(a.delay)
			}
			a.mu.Unlock()
		}
	}
}

// sleep waits out the backoff delay. Only an explicit Flush cancels the wait;
// clicks enqueued meanwhile ride along when the timer fires. Close aborts.
// Returns false when the worker should exit.
func (a *Aggregator) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-a.done:
		return false
	case <-a.flushNow:
		return true
	case <-timer.C:
		return true
	}
}

// flushOnce submits confirmed+pending as the full new total. Clicks arriving
// while the request is in flight stay pending for the next cycle. An
// authentication failure gets exactly one token refresh and one retry.
func (a *Aggregator) flushOnce() error {
	a.mu.Lock()
	amount := a.pending
	target := a.confirmed + amount
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	confirmed, err := a.submit.SubmitTotal(ctx, a.userID, target)
	if err != nil && errors.Is(err, ledger.ErrAuthentication) && a.tokens != nil {
		if rerr := a.tokens.Refresh(ctx); rerr != nil {
			return err
		}
		confirmed, err = a.submit.SubmitTotal(ctx, a.userID, target)
	}
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.confirmed = confirmed
	a.pending -= amount
	if a.pending < 0 {
		a.pending = 0
	}
	a.mu.Unlock()
	return nil
}
