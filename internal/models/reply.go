package models

import "time"

// Reply belongs to exactly one Comment, which belongs to the Reply's Post.
type Reply struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	Owner     User       `gorm:"foreignKey:OwnerID" json:"-"`
	PostID    uint       `gorm:"not null;index" json:"post_id"`
	Post      Post       `gorm:"foreignKey:PostID" json:"-"`
	CommentID uint       `gorm:"not null;index" json:"comment_id"`
	Comment   Comment    `gorm:"foreignKey:CommentID" json:"-"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}
