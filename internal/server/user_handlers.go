package server

import (
	"context"
	"errors"
	"time"

	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	page := parsePagination(c, 20)

	users, err := s.userService.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse{
				Error: "Request timeout",
			})
		}
		return respond(c, err)
	}

	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), actor(c).ID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Usernames cannot be changed.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)

	user, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}

// UpdateMyEmail handles PUT /api/users/me/email
func (s *Server) UpdateMyEmail(c *fiber.Ctx) error {
	var req service.UpdateEmailInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)

	user, err := s.userService.UpdateEmail(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"id": user.ID, "email": user.Email})
}

// ChangeMyPassword handles PUT /api/users/me/password
func (s *Server) ChangeMyPassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Actor = actor(c)

	if err := s.userService.ChangePassword(c.UserContext(), req); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteMyAccount handles DELETE /api/users/me
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	p := actor(c)
	return s.deleteUser(c, p, p.ID)
}

// DeleteUser handles DELETE /api/users/:id (self or admin)
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.deleteUser(c, actor(c), id)
}

func (s *Server) deleteUser(c *fiber.Ctx, p models.Principal, userID uint) error {
	user, err := s.userService.DeleteUser(c.UserContext(), p, userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}
