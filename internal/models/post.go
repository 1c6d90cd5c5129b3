package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxContentLength bounds post, comment and reply content, in runes.
const MaxContentLength = 280

// Post is the root of a content tree.
type Post struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	OwnerID     uint                        `gorm:"not null;index" json:"owner_id"`
	Owner       User                        `gorm:"foreignKey:OwnerID" json:"-"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	ImageRef    string                      `json:"image_ref,omitempty"`
	TaggedUsers datatypes.JSONSlice[string] `gorm:"not null" json:"tagged_users"`
	// TagCount mirrors len(TaggedUsers); conditional updates on it keep tag
	// mutation atomic.
	TagCount  int        `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// IsTagged reports whether username is in the post's tag set.
func (p *Post) IsTagged(username string) bool {
	for _, u := range p.TaggedUsers {
		if u == username {
			return true
		}
	}
	return false
}

// AfterFind normalizes a NULL tag column to an empty set.
func (p *Post) AfterFind(_ *gorm.DB) error {
	if p.TaggedUsers == nil {
		p.TaggedUsers = datatypes.JSONSlice[string]{}
	}
	return nil
}

// BeforeCreate keeps TagCount in step with TaggedUsers.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.TaggedUsers == nil {
		p.TaggedUsers = datatypes.JSONSlice[string]{}
	}
	p.TagCount = len(p.TaggedUsers)
	return nil
}
