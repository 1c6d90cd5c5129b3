package service

import (
	"context"
	"strings"

	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
}

type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// UpdateProfileInput changes bio and avatar. Usernames are immutable and
// not part of the input.
type UpdateProfileInput struct {
	Actor  models.Principal `json:"-"`
	Bio    *string          `json:"bio" validate:"omitempty,max=500"`
	Avatar *string          `json:"avatar" validate:"omitempty,max=512"`
}

// UpdateEmailInput moves the actor's account to a new address.
type UpdateEmailInput struct {
	Actor models.Principal `json:"-"`
	Email string           `json:"email"`
}

// ChangePasswordInput replaces the actor's password after checking the
// current one.
type ChangePasswordInput struct {
	Actor           models.Principal `json:"-"`
	CurrentPassword string           `json:"current_password"`
	NewPassword     string           `json:"new_password"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUser provisions an account with a bcrypt-hashed password. It backs
// the admin CLI, seeding and the development root bootstrap.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (user *models.User, err error) {
	ctx, done := track(ctx, "user", "create")
	defer func() { done(err) }()

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user = &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		Active:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = pageBounds(limit, offset)
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (user *models.User, err error) {
	ctx, done := track(ctx, "user", "update_profile")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.userRepo.UpdateProfile(ctx, in.Actor.ID, in.Bio, in.Avatar)
}

// UpdateEmail normalises and validates the address. Addresses are unique
// across accounts; a taken one fails with Conflict.
func (s *UserService) UpdateEmail(ctx context.Context, in UpdateEmailInput) (user *models.User, err error) {
	ctx, done := track(ctx, "user", "update_email")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.userRepo.UpdateEmail(ctx, in.Actor.ID, email)
}

// ChangePassword verifies CurrentPassword against the stored hash before
// storing a hash of NewPassword. Issued tokens stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) (err error) {
	ctx, done := track(ctx, "user", "change_password")
	defer func() { done(err) }()

	if err := requireActor(in.Actor); err != nil {
		return err
	}
	if in.CurrentPassword == "" {
		return models.NewValidationError("current_password is required")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	account, err := s.userRepo.GetAccount(ctx, in.Actor.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(in.CurrentPassword)); err != nil {
		return models.NewUnauthenticatedError("Incorrect password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, in.Actor.ID, string(hashed))
}

// DeleteUser removes an account and everything attached to it. Users may
// delete themselves; admins may delete anyone.
func (s *UserService) DeleteUser(ctx context.Context, actor models.Principal, userID uint) (user *models.User, err error) {
	ctx, done := track(ctx, "user", "delete")
	defer func() { done(err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	user, err = s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return nil, models.NewForbiddenError("You can only delete your own account")
	}
	if err := s.userRepo.DeleteCascade(ctx, userID); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole changes a user's role. It is not exposed over HTTP.
func (s *UserService) SetRole(ctx context.Context, userID uint, role models.Role) (user *models.User, err error) {
	ctx, done := track(ctx, "user", "set_role")
	defer func() { done(err) }()

	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}
	return s.userRepo.SetRole(ctx, userID, role)
}
