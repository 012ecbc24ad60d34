package store

import (
	"context"
	"fmt"

	"pharmacy/m/domain"
)

const userColumns = `id, username, name, email, role, password_hash, active, created_at`

func (s *Store) GetUser(ctx context.Context, q Queryer, id int64) (*domain.User, error) {
	u, err := get[domain.User](ctx, q, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, q Queryer, username string) (*domain.User, error) {
	return get[domain.User](ctx, q, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// FindUserByIdentifier matches either the username or the email.
func (s *Store) FindUserByIdentifier(ctx context.Context, q Queryer, identifier string) (*domain.User, error) {
	return get[domain.User](ctx, q,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1`, identifier, identifier)
}

// FindUserConflict returns another user holding the username or the email.
// Empty values are not compared.
func (s *Store) FindUserConflict(ctx context.Context, q Queryer, username, email string, excludeID int64) (*domain.User, error) {
	return get[domain.User](ctx, q,
		`SELECT `+userColumns+` FROM users
                WHERE id <> ? AND ((? <> '' AND username = ?) OR (? <> '' AND email = ?))
                ORDER BY id LIMIT 1`, excludeID, username, username, email, email)
}

func (s *Store) ListUsers(ctx context.Context, q Queryer) ([]domain.User, error) {
	return list[domain.User](ctx, q, `SELECT `+userColumns+` FROM users ORDER BY name ASC, id ASC`)
}

func (s *Store) UsersByID(ctx context.Context, q Queryer, ids []int64) (map[int64]*domain.User, error) {
	rows, err := listIn[domain.User](ctx, q, `SELECT `+userColumns+` FROM users WHERE id IN (?)`, uniqueSorted(ids))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make(map[int64]*domain.User, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (s *Store) InsertUser(ctx context.Context, q Queryer, u *domain.User) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO users (username, name, email, role, password_hash, active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Name, u.Email, string(u.Role), u.PasswordHash, u.Active, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// UpdateUser writes every column except the password hash.
func (s *Store) UpdateUser(ctx context.Context, q Queryer, u *domain.User) error {
	_, err := exec(ctx, q, `UPDATE users SET username = ?, name = ?, email = ?, role = ?, active = ? WHERE id = ?`,
		u.Username, u.Name, u.Email, string(u.Role), u.Active, u.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, q Queryer, id int64, hash string) error {
	if _, err := exec(ctx, q, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id); err != nil {
		return fmt.Errorf("set password for user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes the user and detaches their sales.
func (s *Store) DeleteUser(ctx context.Context, q Queryer, id int64) error {
	if _, err := exec(ctx, q, `UPDATE sales SET user_id = NULL WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("detach sales of user %d: %w", id, err)
	}
	if _, err := exec(ctx, q, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context, q Queryer) (int64, error) {
	var n int64
	if err := q.QueryRowxContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
