package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Provider manages scheduled-work events on an external calendar. Calls are
// best effort from the caller's point of view; deleting or renaming an event
// that no longer exists is not an error.
type Provider interface {
	CreateEvent(ctx context.Context, title string, date time.Time, description string) (string, error)
	DeleteEvent(ctx context.Context, eventRef string) error
	RenameEvent(ctx context.Context, eventRef string, newTitle string) error
}

// NoOpProvider keeps events in memory. Used when no external calendar is
// configured and in tests.
type NoOpProvider struct {
	mu     sync.Mutex
	nextID int
	events map[string]string
}

func NewNoOp() *NoOpProvider {
	return &NoOpProvider{events: make(map[string]string)}
}

func (p *NoOpProvider) CreateEvent(ctx context.Context, title string, date time.Time, description string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	ref := fmt.Sprintf("noop-%d", p.nextID)
	p.events[ref] = title
	return ref, nil
}

func (p *NoOpProvider) DeleteEvent(ctx context.Context, eventRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.events, eventRef)
	return nil
}

func (p *NoOpProvider) RenameEvent(ctx context.Context, eventRef string, newTitle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[eventRef]; ok {
		p.events[eventRef] = newTitle
	}
	return nil
}

// Titles returns a copy of the live events. Test helper.
func (p *NoOpProvider) Titles() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.events))
	for k, v := range p.events {
		out[k] = v
	}
	return out
}
