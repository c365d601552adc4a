package testutils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// StaticClassifier returns the same labels for every text.
type StaticClassifier struct {
	Labels []string
	calls  atomic.Int32
}

// Suggest implements classification.Classifier.
func (c *StaticClassifier) Suggest(ctx context.Context, _ string) ([]string, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), c.Labels...), nil
}

// Calls returns how many times Suggest was invoked.
func (c *StaticClassifier) Calls() int {
	return int(c.calls.Load())
}

// SwitchClassifier fails with Err while it is down and returns Labels
// otherwise.
type SwitchClassifier struct {
	Labels []string
	Err    error
	down   atomic.Bool
}

// SetDown switches the classifier between failing and answering.
func (c *SwitchClassifier) SetDown(down bool) {
	c.down.Store(down)
}

// Suggest implements classification.Classifier.
func (c *SwitchClassifier) Suggest(ctx context.Context, _ string) ([]string, error) {
	if c.down.Load() {
		return nil, c.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), c.Labels...), nil
}

// ScriptedClassifier answers per memo text. Texts missing from both maps get
// Default.
type ScriptedClassifier struct {
	Answers map[string][]string
	Errors  map[string]error
	Panics  map[string]bool
	Default []string
}

// Suggest implements classification.Classifier.
func (c *ScriptedClassifier) Suggest(_ context.Context, text string) ([]string, error) {
	if c.Panics[text] {
		panic("scripted classifier panic for " + text)
	}
	if err, ok := c.Errors[text]; ok {
		return nil, err
	}
	if labels, ok := c.Answers[text]; ok {
		return labels, nil
	}
	return c.Default, nil
}

// ConcurrencyProbe records the peak number of simultaneous Suggest calls.
// Each call holds its slot for Delay so overlapping calls are observable.
type ConcurrencyProbe struct {
	Labels []string
	Delay  time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	total    int
}

// Suggest implements classification.Classifier.
func (p *ConcurrencyProbe) Suggest(ctx context.Context, _ string) ([]string, error) {
	p.mu.Lock()
	p.inFlight++
	p.total++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	select {
	case <-time.After(p.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.Labels, nil
}

// Peak returns the highest number of calls observed in flight at once.
func (p *ConcurrencyProbe) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// Total returns the number of calls made.
func (p *ConcurrencyProbe) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
