package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a note posted on the wall.
// LikeCount always equals the number of active Like rows for the message and
// Hidden only ever moves from false to true.
type Message struct {
	// ID is the opaque unique identifier (UUID).
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	// Seq is a monotonically increasing creation sequence used to break
	// timestamp ties when ordering the feed.
	Seq uint64 `gorm:"not null;index" json:"-"`
	// Content is the note text, at most 500 characters.
	Content string `gorm:"type:text;not null" json:"content"`
	// AuthorName is the optional display name of the poster.
	AuthorName *string `gorm:"type:text" json:"authorName"`
	// Location is optional free text supplied by the poster.
	Location  *string   `gorm:"type:text" json:"location"`
	LikeCount int       `gorm:"not null;default:0" json:"likeCount"`
	ViewCount int       `gorm:"not null;default:0" json:"viewCount"`
	Hidden    bool      `gorm:"not null;default:false;index" json:"hidden"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// Like records that an identity currently likes a message.
// At most one row exists per (MessageID, IdentityToken).
type Like struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	MessageID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_like_message_identity" json:"messageId"`
	IdentityToken string    `gorm:"type:varchar(256);not null;uniqueIndex:idx_like_message_identity" json:"-"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return
}
