package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is one entry of a user's in-app mailbox. Read state is
// one-directional: unread -> read, never reversed.
type Notification struct {
	BaseModel
	RecipientID uint  `json:"recipient_id" gorm:"not null;index"`
	Recipient   *User `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`

	Message string     `json:"message" gorm:"not null;size:500"`
	URL     string     `json:"url" gorm:"size:255"`
	Icon    string     `json:"icon" gorm:"size:50"`
	ReadAt  *time.Time `json:"read_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) Read() bool {
	return n.ReadAt != nil
}

// MarkAsRead stamps the transition; a no-op when already read
func (n *Notification) MarkAsRead() {
	if n.ReadAt == nil {
		now := time.Now()
		n.ReadAt = &now
	}
}

// NewestFirst orders a notification query newest first
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC, id DESC")
}

// Unread filters a notification query to unread entries
func Unread(db *gorm.DB) *gorm.DB {
	return db.Where("read_at IS NULL")
}
