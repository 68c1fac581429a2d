// Package accounts implements registration, authentication and the admin
// account-management operations.
package accounts

import (
	"context"
	stderrors "errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Vukotije/audiotheca/internal/app/authz"
	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/app/storage"
	"github.com/Vukotije/audiotheca/internal/errors"
	"github.com/Vukotije/audiotheca/internal/logging"
)

// Service provides user account use-cases on top of a UserStore.
type Service struct {
	users storage.UserStore
	log   *logging.Logger
}

// New constructs an accounts service.
func New(users storage.UserStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("accounts")
	}
	return &Service{users: users, log: log}
}

// Register creates a new account. The role is always "user"; privileges are
// only ever granted afterwards by an admin.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, error) {
	if username == "" || email == "" || password == "" {
		return user.User{}, errors.Validation("Missing required fields")
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return user.User{}, errors.Conflict("Username already exists")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return user.User{}, errors.Internal("lookup username", err)
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, errors.Conflict("Email already exists")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return user.User{}, errors.Internal("lookup email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, errors.Internal("hash password", err)
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return user.User{}, errors.Conflict("Username or email already exists")
		}
		return user.User{}, errors.Internal("create user", err)
	}

	s.log.WithContext(ctx).WithField("username", username).Info("user registered")
	return created, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	if username == "" || password == "" {
		return user.User{}, errors.Validation("Username and password required")
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.User{}, errors.InvalidCredentials()
		}
		return user.User{}, errors.Internal("lookup user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.User{}, errors.InvalidCredentials()
	}
	if !u.IsActive {
		return user.User{}, errors.Forbidden("Account is deactivated")
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.User{}, errors.NotFound("User not found")
		}
		return user.User{}, errors.Internal("get user", err)
	}
	return u, nil
}

// ChangePassword verifies the old password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return errors.Validation("Old password and new password required")
	}

	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return errors.Forbidden("Account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return errors.Validation("Invalid old password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("hash password", err)
	}
	u.PasswordHash = string(hash)

	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return errors.Internal("update password", err)
	}
	return nil
}

// List returns all users. Admin only.
func (s *Service) List(ctx context.Context, actor *user.User) ([]user.User, error) {
	if err := authz.Require(actor, authz.ActionManageUsers); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, errors.Internal("list users", err)
	}
	return users, nil
}

// GetForAdmin returns any user by id. Admin only.
func (s *Service) GetForAdmin(ctx context.Context, actor *user.User, id string) (user.User, error) {
	if err := authz.Require(actor, authz.ActionManageUsers); err != nil {
		return user.User{}, err
	}
	return s.Get(ctx, id)
}

// Ban deactivates a non-admin, non-self account.
func (s *Service) Ban(ctx context.Context, actor *user.User, id string) (user.User, error) {
	return s.setActive(ctx, actor, id, false)
}

// Unban reactivates an account, under the same guards as Ban.
func (s *Service) Unban(ctx context.Context, actor *user.User, id string) (user.User, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *Service) setActive(ctx context.Context, actor *user.User, id string, active bool) (user.User, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if err := authz.RequireCanBan(actor, &target); err != nil {
		return user.User{}, err
	}

	target.IsActive = active
	updated, err := s.users.UpdateUser(ctx, target)
	if err != nil {
		return user.User{}, errors.Internal("update user", err)
	}

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"target":    updated.Username,
		"is_active": active,
	}).Info("user activation changed")
	return updated, nil
}

// ChangeRole assigns a validated role to a non-self user. Admin only.
func (s *Service) ChangeRole(ctx context.Context, actor *user.User, id, newRole string) (user.User, error) {
	if newRole == "" {
		return user.User{}, errors.Validation("Role is required")
	}
	role, ok := user.ParseRole(newRole)
	if !ok {
		return user.User{}, errors.Validation("Invalid role. Must be one of: user, producer, admin")
	}

	target, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if err := authz.RequireCanChangeRole(actor, &target); err != nil {
		return user.User{}, err
	}

	target.Role = role
	updated, err := s.users.UpdateUser(ctx, target)
	if err != nil {
		return user.User{}, errors.Internal("update user", err)
	}

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"target": updated.Username,
		"role":   string(role),
	}).Info("user role changed")
	return updated, nil
}

// EnsureAdmin seeds an admin account on startup when none exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return errors.Internal("list users", err)
	}
	for _, u := range users {
		if u.Role == user.RoleAdmin {
			return nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("hash password", err)
	}

	if _, err := s.users.CreateUser(ctx, user.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         user.RoleAdmin,
		IsActive:     true,
	}); err != nil {
		return errors.Internal("seed admin", err)
	}

	s.log.WithField("username", username).Info("seeded initial admin account")
	return nil
}
