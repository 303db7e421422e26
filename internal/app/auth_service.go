package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"specialization_alert_bot/internal/domain/user"
	idb "specialization_alert_bot/internal/infra/database"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrInvalidRole = errors.New("unknown role")
var ErrSelfDelete = errors.New("you cannot delete your own account")

// UserUpdate carries an edit of an account. An empty Password keeps the current one.
type UserUpdate struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     user.Role `json:"role"`
	Password string    `json:"password"`
}

type AuthService struct {
	users  user.Repository
	logger *logrus.Entry
}

func NewAuthService(ur user.Repository, logger *logrus.Entry) *AuthService {
	return &AuthService{users: ur, logger: logger}
}

// Authenticate checks a username/password pair against the stored bcrypt hash.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, idb.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("Failed to record last login")
	}
	return u, nil
}

// CreateUser adds an operator account. Only superusers may create admins or superusers.
func (s *AuthService) CreateUser(ctx context.Context, actor *user.User, username, password, email string, role user.Role) (*user.User, error) {
	if err := authorizeManage(actor); err != nil {
		return nil, err
	}
	if err := authorizeRole(actor, role); err != nil {
		return nil, err
	}
	return s.create(ctx, username, password, email, role)
}

// UpdateUser edits username, email and role, and resets the password only when one is given.
// Admins may edit plain users and themselves; admin and superuser accounts are reserved to superusers.
func (s *AuthService) UpdateUser(ctx context.Context, actor *user.User, id int64, in UserUpdate) (*user.User, error) {
	if err := authorizeManage(actor); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, target) {
		return nil, ErrNotAuthorized
	}
	if in.Role == "" {
		in.Role = target.Role
	}
	if in.Role != target.Role {
		if err := authorizeRole(actor, in.Role); err != nil {
			return nil, err
		}
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	target.Username = username
	target.Email = strings.TrimSpace(in.Email)
	target.Role = in.Role
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		target.PasswordHash = string(hash)
	}
	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "by": actor.Username}).Info("User updated")
	return target, nil
}

// DeleteUser removes an account. Nobody may delete their own account.
func (s *AuthService) DeleteUser(ctx context.Context, actor *user.User, id int64) error {
	if err := authorizeManage(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrSelfDelete
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canTouch(actor, target) {
		return ErrNotAuthorized
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "username": target.Username, "by": actor.Username}).Info("User deleted")
	return nil
}

// authorizeRole checks that actor may hand out role.
func authorizeRole(actor *user.User, role user.Role) error {
	switch role {
	case user.RoleUser:
		return nil
	case user.RoleAdmin, user.RoleSuperuser:
		if actor.Role != user.RoleSuperuser {
			return ErrNotAuthorized
		}
		return nil
	default:
		return ErrInvalidRole
	}
}

func canTouch(actor, target *user.User) bool {
	return actor.Role == user.RoleSuperuser || target.Role == user.RoleUser || actor.ID == target.ID
}

func (s *AuthService) ListUsers(ctx context.Context, actor *user.User) ([]*user.User, error) {
	if err := authorizeManage(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// EnsureBootstrapAdmin creates a superuser account when none with that name exists.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, idb.ErrUserNotFound) {
		return fmt.Errorf("failed to check bootstrap admin: %w", err)
	}
	if _, err := s.create(ctx, username, password, "", user.RoleSuperuser); err != nil {
		if errors.Is(err, idb.ErrDuplicateUsername) {
			// created concurrently by another instance
			return nil
		}
		return err
	}
	s.logger.WithField("username", username).Info("Bootstrap superuser created")
	return nil
}

func (s *AuthService) create(ctx context.Context, username, password, email string, role user.Role) (*user.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &user.User{Username: username, PasswordHash: string(hash), Email: strings.TrimSpace(email), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
