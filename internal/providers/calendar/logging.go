package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// loggingProvider records every calendar call before delegating.
type loggingProvider struct {
	next Provider
	log  *zap.Logger
}

func WithLogging(next Provider, log *zap.Logger) Provider {
	return &loggingProvider{next: next, log: log}
}

func (p *loggingProvider) CreateEvent(ctx context.Context, title string, date time.Time, description string) (string, error) {
	ref, err := p.next.CreateEvent(ctx, title, date, description)
	p.log.Debug("create event",
		zap.String("title", title),
		zap.Time("date", date),
		zap.String("ref", ref),
		zap.Error(err))
	return ref, err
}

func (p *loggingProvider) DeleteEvent(ctx context.Context, ref string) error {
	err := p.next.DeleteEvent(ctx, ref)
	p.log.Debug("delete event", zap.String("ref", ref), zap.Error(err))
	return err
}

func (p *loggingProvider) RenameEvent(ctx context.Context, ref, title string) error {
	err := p.next.RenameEvent(ctx, ref, title)
	p.log.Debug("rename event", zap.String("ref", ref), zap.String("title", title), zap.Error(err))
	return err
}
