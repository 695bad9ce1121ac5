package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MediaEventType string

const (
	MediaEventUploaded      MediaEventType = "media.uploaded"
	MediaEventDeleted       MediaEventType = "media.deleted"
	MediaEventBlobOrphaned  MediaEventType = "media.blob_orphaned"
	MediaEventCommentAdded  MediaEventType = "media.comment_added"
	MediaEventRatingChanged MediaEventType = "media.rating_changed"
)

type MediaEvent struct {
	EventType  MediaEventType `json:"event_type"`
	MediaID    uuid.UUID      `json:"media_id"`
	UserID     uuid.UUID      `json:"user_id"`
	MediaType  string         `json:"media_type,omitempty"`
	URL        string         `json:"url,omitempty"`
	ObjectKeys []string       `json:"object_keys,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type EventPublisher interface {
	PublishMediaEvent(ctx context.Context, evt MediaEvent) error
}
