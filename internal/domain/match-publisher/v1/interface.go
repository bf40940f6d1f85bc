package matchpublisherv1

import "context"

// MatchPublisher defines the interface for publishing fill events.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=matchpublisherv1_mock
type MatchPublisher interface {
	// PublishFillEvent publishes the fills of one submission.
	PublishFillEvent(ctx context.Context, event *FillEvent) error
	// Close flushes and releases the underlying writer.
	Close() error
}
