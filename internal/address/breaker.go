package address

import "sync"

// breaker stops provider calls after a run of consecutive provider errors.
// It never closes again; a bulk run that trips it leaves the remaining
// addresses unverified instead of spending quota on a failing provider.
type breaker struct {
	mu        sync.Mutex
	threshold int
	failures  int
	open      bool
}

func newBreaker(threshold int) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	return &breaker{threshold: threshold}
}

func (b *breaker) allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.open
}

// record counts a provider error, or resets the run on success or a clean miss.
func (b *breaker) record(err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.open = true
	}
}

func (b *breaker) tripped() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
