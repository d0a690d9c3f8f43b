package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProfileEventType string

const ProfileEventUpdated ProfileEventType = "profile.updated"

type ProfileEvent struct {
	EventID    uuid.UUID        `json:"event_id"`
	EventType  ProfileEventType `json:"event_type"`
	AssetRefs  []string         `json:"asset_refs"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, e ProfileEvent) error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, ProfileEvent) error { return nil }
