package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer blocks between detail page fetches.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomPacer waits a uniformly random duration in [min, max].
type RandomPacer struct {
	min, max time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomPacer(min, max time.Duration) *RandomPacer {
	if max < min {
		max = min
	}
	return &RandomPacer{
		min: min,
		max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay draws the next pause.
func (p *RandomPacer) Delay() time.Duration {
	if p.max == p.min {
		return p.min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min + time.Duration(p.rnd.Int63n(int64(p.max-p.min)+1))
}

// Wait sleeps for Delay or until ctx is done.
func (p *RandomPacer) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
