package models

import (
	"time"

	"gorm.io/gorm"
)

// postPreviewLen is the number of characters of text shown by Post.String.
const postPreviewLen = 15

// Post is a piece of content written by a user, optionally filed under a group.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID  *uint  `gorm:"index" json:"group_id,omitempty"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is a path relative to the media root; empty when no image is attached.
	Image     string         `json:"image,omitempty"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// String returns the first characters of the post text.
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > postPreviewLen {
		return string(r[:postPreviewLen])
	}
	return p.Text
}

// IsAuthoredBy reports whether the post belongs to the given user.
func (p Post) IsAuthoredBy(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}
