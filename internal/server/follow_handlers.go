package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	follow, err := s.followService.Follow(c.UserContext(), actor(c), targetID)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.UserContext(), actor(c), targetID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	users, err := s.followService.FollowersPage(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	users, err := s.followService.FollowingPage(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(users)
}
