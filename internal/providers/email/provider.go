package email

import "context"

// Provider sends mail to people and files quote drafts for later review.
// Drafts are never sent automatically; they wait for a human to approve.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, body string) error
	CreateDraft(ctx context.Context, to []string, subject string, body string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, body string) error {
	return nil
}

func (p *NoOpProvider) CreateDraft(ctx context.Context, to []string, subject string, body string) error {
	return nil
}
