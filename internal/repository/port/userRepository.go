package repository

import (
	"context"
	"errors"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// ErrUserNotFound is reported when the referenced identity does not exist.
var ErrUserNotFound = errors.New("users: not found")

// User is the read-only identity record owned by the auth subsystem. The
// messaging core never mutates it.
type User struct {
	ID     int64     `db:"id"`
	Email  string    `db:"email"`
	Role   chat.Role `db:"role"`
	Active bool      `db:"is_active"`
}

// UserRepository resolves user ids to their identity reference data.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}
