package engagement

import (
	"lennonwall/backend/internal/events"
	"lennonwall/backend/internal/models"
)

// Journal durably records mutations. The store calls it inside the critical
// section before applying a change and abandons the change if it fails.
type Journal interface {
	MessageCreated(m models.Message) error
	LikeAdded(l models.Like, likeCount int) error
	LikeRemoved(l models.Like, likeCount int) error
	ReportFiled(r models.Report, hide bool) error
	ViewCounted(messageID string) error
	MessagesHidden(ids []string) error
}

// Observer receives committed changes. Observe is called while the store lock
// is held and must not block.
type Observer interface {
	Observe(e events.Event)
}
