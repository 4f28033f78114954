package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
)

// CreateUser inserts a user and its roles in one transaction
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO users (id, email, password_hash, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, nullable(u.FullName), u.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	for _, role := range u.Roles {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, u.ID, string(role)); err != nil {
			return fmt.Errorf("insert user role: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	var fullName *string
	err := s.db.QueryRow(ctx, `SELECT id, email, password_hash, full_name, created_at
		FROM users WHERE `+column+` = $1`, value).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &fullName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.FullName = deref(fullName)

	rows, err := s.db.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()
	u.Roles = make([]models.Role, 0)
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		u.Roles = append(u.Roles, models.Role(r))
	}
	return &u, rows.Err()
}

// GetUser looks up a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail looks up a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// AddUserRole grants role to the user; granting twice is a no-op
func (s *Store) AddUserRole(ctx context.Context, userID string, role models.Role) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, string(role)); err != nil {
		return fmt.Errorf("add user role: %w", err)
	}
	return nil
}
