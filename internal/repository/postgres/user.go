package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
)

type userRepository struct {
	db sqlx.ExtContext
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, first_name, last_name, dni, email, password_hash, birth_date,
			phone, address, role, status, data_consent, accepted_policies,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	now := time.Now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.DNI, user.Email,
		user.PasswordHash, user.BirthDate, user.Phone, user.Address,
		user.Role, user.Status, user.DataConsent, user.AcceptedPolicies,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, r.db, &user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, r.db, &user, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByDNI(ctx context.Context, dni string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, r.db, &user, `SELECT * FROM users WHERE dni = $1`, dni)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by dni: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			first_name = $1, last_name = $2, phone = $3, address = $4,
			role = $5, status = $6, password_hash = $7, updated_at = $8
		WHERE id = $9`

	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Phone, user.Address,
		user.Role, user.Status, user.PasswordHash, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLoginAttempts(ctx context.Context, id uuid.UUID, attempts int, lastAttempt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET login_attempts = $1, last_login_attempt = $2 WHERE id = $3`,
		attempts, lastAttempt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update login attempts: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $1, login_attempts = 0 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, role *model.UserRole, p model.Pagination) ([]*model.User, error) {
	query := `SELECT * FROM users WHERE ($1::text IS NULL OR role = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	limit := p.PageSize
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if p.Page > 1 {
		offset = (p.Page - 1) * limit
	}

	var users []*model.User
	if err := sqlx.SelectContext(ctx, r.db, &users, query, role, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	var users []*model.User
	err := sqlx.SelectContext(ctx, r.db, &users,
		`SELECT * FROM users WHERE role = $1 AND status = 'active' ORDER BY last_name`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}
