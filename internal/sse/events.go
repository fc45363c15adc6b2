// Package sse implements Server-Sent Events for pushing collection
// snapshots to connected clients. Events carry full snapshots rather
// than deltas, so a client can always replace its local state wholesale.
package sse

import (
	"time"

	"github.com/terplogapp/terplog-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventConnected confirms a new SSE connection.
	EventConnected EventType = "connected"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// EventReviewsSnapshot carries a user's full review collection.
	// Delivered only to that user's connections.
	EventReviewsSnapshot EventType = "reviews.snapshot"

	// EventPopularSnapshot carries the shared popular collection.
	// Broadcast to all connections.
	EventPopularSnapshot EventType = "popular.snapshot"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// When set, the event is only delivered to connections belonging
	// to this user. Empty string means broadcast to all.
	UserID string `json:"-"`
}

// ReviewsSnapshotData is the payload for reviews snapshot events.
type ReviewsSnapshotData struct {
	Reviews []*domain.Review `json:"reviews"`
}

// PopularSnapshotData is the payload for popular snapshot events.
type PopularSnapshotData struct {
	Strains []*domain.PopularStrain `json:"strains"`
}

// HeartbeatData is the payload for heartbeat events.
type HeartbeatData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatData{ServerTime: now},
	}
}

// NewReviewsSnapshotEvent creates a per-user reviews snapshot event.
func NewReviewsSnapshotEvent(userID string, reviews []*domain.Review) Event {
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return Event{
		Type:      EventReviewsSnapshot,
		Timestamp: time.Now(),
		Data:      ReviewsSnapshotData{Reviews: reviews},
		UserID:    userID,
	}
}

// NewPopularSnapshotEvent creates a broadcast popular snapshot event.
func NewPopularSnapshotEvent(strains []*domain.PopularStrain) Event {
	if strains == nil {
		strains = []*domain.PopularStrain{}
	}
	return Event{
		Type:      EventPopularSnapshot,
		Timestamp: time.Now(),
		Data:      PopularSnapshotData{Strains: strains},
	}
}
