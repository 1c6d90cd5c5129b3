package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.CreateCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.PostID = postID

	comment, err := s.commentService.CreateComment(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comments)
}

// GetComment handles GET /api/posts/:id/comments/:commentId
func (s *Server) GetComment(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetComment(c.UserContext(), ids[1])
	if err != nil {
		return respond(c, err)
	}
	if comment.PostID != ids[0] {
		return respond(c, models.NewNotFoundError("Comment", ids[1]))
	}
	return c.JSON(comment)
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}

	var req service.EditCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.PostID = ids[0]
	req.CommentID = ids[1]

	comment, err := s.commentService.EditComment(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ids, err := s.parseIDs(c, "id", "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		Actor:     actor(c),
		PostID:    ids[0],
		CommentID: ids[1],
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comment)
}
