package models

import (
	"fmt"
	"time"
)

// ReactionType enumerates the reactions a user can leave.
type ReactionType string

const (
	ReactionLike ReactionType = "like"
	ReactionLove ReactionType = "love"
	ReactionHaha ReactionType = "haha"
	ReactionHate ReactionType = "hate"
	ReactionSad  ReactionType = "sad"
)

// Valid reports whether t is one of the known reaction types.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionHate, ReactionSad:
		return true
	}
	return false
}

// TargetKind discriminates the level of the content tree a reaction attaches to.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
	TargetReply   TargetKind = "reply"
)

// ReactionTarget is the single Post, Comment or Reply a reaction is attached to.
type ReactionTarget struct {
	Kind TargetKind
	ID   uint
}

func PostTarget(id uint) ReactionTarget    { return ReactionTarget{Kind: TargetPost, ID: id} }
func CommentTarget(id uint) ReactionTarget { return ReactionTarget{Kind: TargetComment, ID: id} }
func ReplyTarget(id uint) ReactionTarget   { return ReactionTarget{Kind: TargetReply, ID: id} }

// Validate checks the target is a known kind with a non-zero id.
func (t ReactionTarget) Validate() error {
	switch t.Kind {
	case TargetPost, TargetComment, TargetReply:
	default:
		return NewValidationError(fmt.Sprintf("unknown reaction target %q", t.Kind))
	}
	if t.ID == 0 {
		return NewValidationError("reaction target id is required")
	}
	return nil
}

func (t ReactionTarget) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// Reaction is one user's reaction to exactly one target. The nullable
// foreign keys mirror TargetType/TargetID, which carry the uniqueness index,
// and reference the target row so a reaction cannot outlive it.
type Reaction struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OwnerID      uint         `gorm:"not null;uniqueIndex:idx_reaction_owner_target,priority:1" json:"owner_id"`
	Owner        User         `gorm:"foreignKey:OwnerID" json:"-"`
	TargetType   TargetKind   `gorm:"type:varchar(16);not null;uniqueIndex:idx_reaction_owner_target,priority:2;index:idx_reaction_target,priority:1" json:"target_type"`
	TargetID     uint         `gorm:"not null;uniqueIndex:idx_reaction_owner_target,priority:3;index:idx_reaction_target,priority:2" json:"target_id"`
	PostID       *uint        `gorm:"index" json:"post_id,omitempty"`
	Post         *Post        `gorm:"foreignKey:PostID" json:"-"`
	CommentID    *uint        `gorm:"index" json:"comment_id,omitempty"`
	Comment      *Comment     `gorm:"foreignKey:CommentID" json:"-"`
	ReplyID      *uint        `gorm:"index" json:"reply_id,omitempty"`
	Reply        *Reply       `gorm:"foreignKey:ReplyID" json:"-"`
	ReactionType ReactionType `gorm:"type:varchar(16);not null" json:"reaction_type"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    *time.Time   `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// NewReaction builds an unsaved reaction with exactly one target column set.
func NewReaction(ownerID uint, target ReactionTarget, reactionType ReactionType) *Reaction {
	r := &Reaction{
		OwnerID:      ownerID,
		TargetType:   target.Kind,
		TargetID:     target.ID,
		ReactionType: reactionType,
	}
	id := target.ID
	switch target.Kind {
	case TargetPost:
		r.PostID = &id
	case TargetComment:
		r.CommentID = &id
	case TargetReply:
		r.ReplyID = &id
	}
	return r
}

// Target returns the variant the reaction is attached to.
func (r *Reaction) Target() ReactionTarget {
	return ReactionTarget{Kind: r.TargetType, ID: r.TargetID}
}

// ReactionSummary is the listing shape of a reaction on a target.
type ReactionSummary struct {
	ID           uint         `json:"id"`
	Owner        string       `json:"owner"`
	ReactionType ReactionType `json:"reaction_type"`
}

// ReactionPath carries the ancestor ids a caller addressed a target through,
// e.g. /posts/{post}/comments/{comment}. Nil fields are not checked.
type ReactionPath struct {
	PostID    *uint
	CommentID *uint
}

// ReactionDetail is a reaction together with the content of its target and
// the target's ancestors. The snapshots are response shaping only.
type ReactionDetail struct {
	Reaction       *Reaction `json:"reaction"`
	PostContent    string    `json:"post_content,omitempty"`
	CommentContent string    `json:"comment_content,omitempty"`
	ReplyContent   string    `json:"reply_content,omitempty"`
	// TargetOwnerID is the owner of the reacted-to node.
	TargetOwnerID uint `json:"-"`
}
