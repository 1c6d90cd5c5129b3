package server

import (
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), postID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	posts, err := s.postService.ListUserPosts(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.EditPostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.PostID = postID

	post, err := s.postService.EditPost(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id and answers with the removed post.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		Actor:  actor(c),
		PostID: postID,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// AddTags handles PUT /api/posts/:id/tags
func (s *Server) AddTags(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.AddTagsInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)
	req.PostID = postID

	post, err := s.postService.AddTags(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// RemoveTags handles DELETE /api/posts/:id/tags
func (s *Server) RemoveTags(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.RemoveTags(c.UserContext(), service.RemoveTagsInput{
		Actor:  actor(c),
		PostID: postID,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}
