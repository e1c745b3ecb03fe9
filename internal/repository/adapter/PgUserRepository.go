package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	port "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/repository/port"
)

// PgUserRepository reads identity reference data from the users table.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

// Ensure interface compliance at compile time
var _ port.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*port.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var u port.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, role, is_active FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Role, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
