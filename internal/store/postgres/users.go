package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"smart-international-shipping/internal/domain"
)

const userColumns = `id::text, name, email, role, coalesce(password_hash, ''), federated, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.Federated, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	var hash *string
	if u.PasswordHash != "" {
		hash = &u.PasswordHash
	}
	err := s.DB.QueryRow(ctx, `
		insert into users(id, name, email, role, password_hash, federated)
		values ($1::uuid, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, u.ID, u.Name, u.Email, string(u.Role), hash, u.Federated).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict("email %s already registered", u.Email)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound("user %s not found", id)
	}
	u, err := scanUser(s.DB.QueryRow(ctx, `select `+userColumns+` from users where id = $1::uuid`, id))
	if err != nil {
		return nil, notFound(err, "select user", "user %s not found", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `select `+userColumns+` from users where email = $1`, email))
	if err != nil {
		return nil, notFound(err, "select user by email", "user with email %s not found", email)
	}
	return u, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	ids = validIDs(ids)
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `select `+userColumns+` from users where id = any($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}
