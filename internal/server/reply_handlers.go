package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReply handles POST /api/posts/:id/comments/:commentId/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}

	var req service.CreateReplyInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.PostID = ids[0]
	req.CommentID = ids[1]

	reply, err := s.replyService.CreateReply(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// GetReplies handles GET /api/posts/:id/comments/:commentId/replies
func (s *Server) GetReplies(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}

	replies, err := s.replyService.ListReplies(c.UserContext(), ids[0], ids[1])
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(replies)
}

// GetReply handles GET /api/posts/:id/comments/:commentId/replies/:replyId
func (s *Server) GetReply(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId", "replyId")
	if err != nil {
		return nil
	}

	reply, err := s.replyService.GetReply(c.UserContext(), ids[2])
	if err != nil {
		return respond(c, err)
	}
	if reply.PostID != ids[0] || reply.CommentID != ids[1] {
		return respond(c, models.NewNotFoundError("Reply", ids[2]))
	}
	return c.JSON(reply)
}

// UpdateReply handles PUT /api/posts/:id/comments/:commentId/replies/:replyId
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId", "replyId")
	if err != nil {
		return nil
	}

	var req service.EditReplyInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.PostID = ids[0]
	req.CommentID = ids[1]
	req.ReplyID = ids[2]

	reply, err := s.replyService.EditReply(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(reply)
}

// DeleteReply handles DELETE /api/posts/:id/comments/:commentId/replies/:replyId
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId", "replyId")
	if err != nil {
		return nil
	}

	reply, err := s.replyService.DeleteReply(c.UserContext(), service.DeleteReplyInput{
		Actor:     actor(c),
		PostID:    ids[0],
		CommentID: ids[1],
		ReplyID:   ids[2],
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(reply)
}
