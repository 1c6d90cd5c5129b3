package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReactToPost handles POST /api/posts/:id/reactions
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.react(c, models.PostTarget(postID), models.ReactionPath{})
}

// ReactToComment handles POST /api/posts/:id/comments/:commentId/reactions
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}
	return s.react(c, models.CommentTarget(ids[1]), models.ReactionPath{PostID: &ids[0]})
}

// ReactToReply handles POST /api/posts/:id/comments/:commentId/replies/:replyId/reactions
func (s *Server) ReactToReply(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId", "replyId")
	if err != nil {
		return nil
	}
	return s.react(c, models.ReplyTarget(ids[2]), models.ReactionPath{
		PostID:    &ids[0],
		CommentID: &ids[1],
	})
}

func (s *Server) react(c *fiber.Ctx, target models.ReactionTarget, path models.ReactionPath) error {
	var req service.AddReactionInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.Target = target
	req.Path = path

	detail, err := s.reactionService.AddReaction(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// GetPostReactions handles GET /api/posts/:id/reactions
func (s *Server) GetPostReactions(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.listReactions(c, models.PostTarget(postID), models.ReactionPath{})
}

// GetCommentReactions handles GET /api/posts/:id/comments/:commentId/reactions
func (s *Server) GetCommentReactions(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}
	return s.listReactions(c, models.CommentTarget(ids[1]), models.ReactionPath{PostID: &ids[0]})
}

// GetReplyReactions handles GET /api/posts/:id/comments/:commentId/replies/:replyId/reactions
func (s *Server) GetReplyReactions(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId", "replyId")
	if err != nil {
		return nil
	}
	return s.listReactions(c, models.ReplyTarget(ids[2]), models.ReactionPath{
		PostID:    &ids[0],
		CommentID: &ids[1],
	})
}

func (s *Server) listReactions(c *fiber.Ctx, target models.ReactionTarget, path models.ReactionPath) error {
	reactions, err := s.reactionService.ListReactions(c.UserContext(), target, path)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(reactions)
}

// UpdateReaction handles PUT /api/reactions/:id
func (s *Server) UpdateReaction(c *fiber.Ctx) error {
	reactionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateReactionInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.ReactionID = reactionID

	reaction, err := s.reactionService.UpdateReaction(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(reaction)
}

// DeleteReaction handles DELETE /api/reactions/:id
func (s *Server) DeleteReaction(c *fiber.Ctx) error {
	reactionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	reaction, err := s.reactionService.RemoveReaction(c.UserContext(), service.RemoveReactionInput{
		Actor:      actor(c),
		ReactionID: reactionID,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(reaction)
}
