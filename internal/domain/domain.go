// Package domain provides shared types for the inventory core's domain
// services.
package domain

import (
	"context"

	"gestoc/internal/core/id"
)

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Event is an integration event emitted after a document transition commits.
// Consumers (schedulers, sync jobs) pick events up from the outbox.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher writes integration events transactionally with the triggering
// mutation. Implementations live in infrastructure (transactional outbox).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
