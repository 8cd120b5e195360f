package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voicedesk/internal/entities"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *entities.User) error {
	_, err := r.db.Exec(context.Background(),
		"INSERT INTO users (username, password_hash, role, tenant_id, is_active) VALUES ($1, $2, $3, $4, TRUE)",
		user.Username, user.PasswordHash, user.Role, user.TenantID)
	return err
}

func (r *UserRepository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.QueryRow(context.Background(),
		"SELECT id, username, password_hash, role, tenant_id, is_active FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.TenantID, &user.IsActive)

	if err == pgx.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// BindTenant attaches a user account to the tenant it manages.
func (r *UserRepository) BindTenant(userID, tenantID int) error {
	_, err := r.db.Exec(context.Background(),
		"UPDATE users SET tenant_id = $1 WHERE id = $2", tenantID, userID)
	return err
}
