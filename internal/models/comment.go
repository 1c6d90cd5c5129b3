package models

import "time"

// Comment is a direct child of a Post.
type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	Owner     User       `gorm:"foreignKey:OwnerID" json:"-"`
	PostID    uint       `gorm:"not null;index" json:"post_id"`
	Post      Post       `gorm:"foreignKey:PostID" json:"-"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}
