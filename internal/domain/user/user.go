package user

import (
	"context"
	"time"
)

// Role controls what an operator may do through the admin surfaces.
type Role string

const (
	RoleSuperuser Role = "superuser"
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
)

// CanManage reports whether the role may create, edit, delete, import records or trigger a check.
func (r Role) CanManage() bool {
	return r == RoleSuperuser || r == RoleAdmin
}

// User is an operator account. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Role         Role
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Repository defines persistence for operator accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	// Update stores username, email, role and password hash of u.
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*User, error)
}
