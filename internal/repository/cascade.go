package repository

import (
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
)

// The cascade helpers run inside a caller-owned transaction and delete
// strictly bottom-up: reactions, replies, comments, then the root rows.

func deleteRows(tx *gorm.DB, table string, model interface{}, query interface{}, args ...interface{}) error {
	res := tx.Where(query, args...).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	observability.CascadeDeletedRows.WithLabelValues(table).Add(float64(res.RowsAffected))
	return nil
}

// cascadeReply removes a reply and every reaction on it.
func cascadeReply(tx *gorm.DB, replyID uint) error {
	if err := deleteRows(tx, "reactions", &models.Reaction{}, "reply_id = ?", replyID); err != nil {
		return err
	}
	return deleteRows(tx, "replies", &models.Reply{}, "id = ?", replyID)
}

// cascadeComment removes a comment, its replies and every reaction on either.
func cascadeComment(tx *gorm.DB, commentID uint) error {
	replyIDs := tx.Model(&models.Reply{}).Select("id").Where("comment_id = ?", commentID)

	if err := deleteRows(tx, "reactions", &models.Reaction{},
		"comment_id = ? OR reply_id IN (?)", commentID, replyIDs); err != nil {
		return err
	}
	if err := deleteRows(tx, "replies", &models.Reply{}, "comment_id = ?", commentID); err != nil {
		return err
	}
	return deleteRows(tx, "comments", &models.Comment{}, "id = ?", commentID)
}

// cascadePosts removes the posts selected by postIDs (a value or subquery)
// with all of their descendants and reactions.
func cascadePosts(tx *gorm.DB, postIDs interface{}) error {
	commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id IN (?)", postIDs)
	replyIDs := tx.Model(&models.Reply{}).Select("id").Where("post_id IN (?)", postIDs)

	if err := deleteRows(tx, "reactions", &models.Reaction{},
		"post_id IN (?) OR comment_id IN (?) OR reply_id IN (?)", postIDs, commentIDs, replyIDs); err != nil {
		return err
	}
	if err := deleteRows(tx, "replies", &models.Reply{}, "post_id IN (?)", postIDs); err != nil {
		return err
	}
	if err := deleteRows(tx, "comments", &models.Comment{}, "post_id IN (?)", postIDs); err != nil {
		return err
	}
	return deleteRows(tx, "posts", &models.Post{}, "id IN (?)", postIDs)
}

// cascadeUser removes a user, everything they own, everything attached to
// what they own and every follow edge they are party to. It returns the ids
// of the removed posts.
func cascadeUser(tx *gorm.DB, userID uint) ([]uint, error) {
	// snapshot ids first; the subqueries would otherwise shrink as rows go
	var postIDs, commentIDs []uint
	if err := tx.Model(&models.Post{}).Where("owner_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Comment{}).Where("owner_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
		return nil, err
	}

	if len(postIDs) > 0 {
		if err := cascadePosts(tx, postIDs); err != nil {
			return nil, err
		}
	}
	for _, id := range commentIDs {
		if err := cascadeComment(tx, id); err != nil {
			return nil, err
		}
	}

	// what remains is their replies and reactions on other users' content
	ownReplies := tx.Model(&models.Reply{}).Select("id").Where("owner_id = ?", userID)
	if err := deleteRows(tx, "reactions", &models.Reaction{},
		"owner_id = ? OR reply_id IN (?)", userID, ownReplies); err != nil {
		return nil, err
	}
	if err := deleteRows(tx, "replies", &models.Reply{}, "owner_id = ?", userID); err != nil {
		return nil, err
	}
	if err := deleteRows(tx, "follows", &models.Follow{}, "follower_id = ? OR followee_id = ?", userID, userID); err != nil {
		return nil, err
	}
	if err := deleteRows(tx, "users", &models.User{}, "id = ?", userID); err != nil {
		return nil, err
	}
	return postIDs, nil
}
