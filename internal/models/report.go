package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportReason is one of the enumerated report reason codes.
type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonHarassment    ReportReason = "harassment"
	ReasonOther         ReportReason = "other"
)

// AllReasons lists the reason codes in display order.
var AllReasons = []ReportReason{ReasonSpam, ReasonInappropriate, ReasonHarassment, ReasonOther}

// Valid reports whether r is a known reason code.
func (r ReportReason) Valid() bool {
	for _, known := range AllReasons {
		if r == known {
			return true
		}
	}
	return false
}

// LabelKey is the translation key holding the reason's display label.
func (r ReportReason) LabelKey() string {
	return "reason." + string(r)
}

// Report is a single abuse report. Reports are not deduplicated: the same
// identity may report the same message any number of times.
type Report struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	MessageID     string       `gorm:"type:varchar(36);not null;index" json:"messageId"`
	Reason        ReportReason `gorm:"type:varchar(32);not null" json:"reason"`
	Details       *string      `gorm:"type:text" json:"details"`
	IdentityToken string       `gorm:"type:varchar(256);not null" json:"-"`
	CreatedAt     time.Time    `gorm:"not null" json:"createdAt"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
