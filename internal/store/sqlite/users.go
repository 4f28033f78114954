package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

// CreateUser inserts a user and its roles in one transaction
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=?`, u.Email).Scan(&n)
	if err == nil {
		return store.ErrDuplicate
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check email: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, full_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, nullable(u.FullName), formatTime(u.CreatedAt)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	for _, role := range u.Roles {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`,
			u.ID, string(role)); err != nil {
			return fmt.Errorf("insert user role: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	var fullName sql.NullString
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, full_name, created_at
		FROM users WHERE `+column+`=?`, value).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &fullName, &created)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.FullName = fullName.String
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	roles, err := s.userRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

// GetUser looks up a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail looks up a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) userRoles(ctx context.Context, userID string) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id=? ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()
	roles := make([]models.Role, 0)
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, models.Role(r))
	}
	return roles, rows.Err()
}

// AddUserRole grants role to the user; granting twice is a no-op
func (s *Store) AddUserRole(ctx context.Context, userID string, role models.Role) error {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role)
		SELECT id, ? FROM users WHERE id=?`, string(role), userID)
	if err != nil {
		return fmt.Errorf("add user role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.getUser(ctx, "id", userID); err != nil {
			return err
		}
	}
	return nil
}
