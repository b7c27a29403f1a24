// Package events carries engagement and moderation events from the
// engagement store to out-of-band consumers (redis, telegram, metrics).
package events

import (
	"time"

	"lennonwall/backend/internal/models"
)

// Type names an event.
type Type string

const (
	MessageCreated  Type = "message.created"
	MessageLiked    Type = "message.liked"
	MessageUnliked  Type = "message.unliked"
	MessageViewed   Type = "message.viewed"
	MessageReported Type = "message.reported"
	MessageHidden   Type = "message.hidden"
)

// Event describes one committed change to a message. Message is a snapshot
// taken right after the change.
type Event struct {
	Type        Type                `json:"type"`
	MessageID   string              `json:"messageId"`
	Message     models.Message      `json:"message"`
	Reason      models.ReportReason `json:"reason,omitempty"`
	ReportCount int                 `json:"reportCount,omitempty"`
	At          time.Time           `json:"at"`
}
