package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Follow is a directed edge from follower to followee.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:1" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID" json:"-"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// BeforeCreate rejects self edges before they reach the store.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.FollowerID == f.FolloweeID {
		return errors.New("follow: follower and followee must differ")
	}
	return nil
}

// FollowPage selects a window of a follow listing. AfterID is a keyset
// cursor over edge ids; Offset is used when AfterID is zero.
type FollowPage struct {
	AfterID uint
	Offset  int
	Limit   int
}

// FollowEntry is one listed user together with the edge id used as cursor.
type FollowEntry struct {
	EdgeID uint
	User   UserSummary
}
