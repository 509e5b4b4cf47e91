package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := r.rebind(`
		SELECT name, email, password_hash, role, sub_role, created_at, version
		FROM users WHERE id = $1
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.SubRole, nullableTime{&user.CreatedAt}, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := r.rebind(`
		SELECT id, name, password_hash, role, sub_role, created_at, version
		FROM users WHERE email = $1
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		Email: email,
	}

	dst := []any{&user.ID, &user.Name, &user.PasswordHash, &user.Role, &user.SubRole, nullableTime{&user.CreatedAt}, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUserPassword 是用户注册后唯一允许修改的字段，使用 version 做乐观锁
func (r *Repository) UpdateUserPassword(ctx context.Context, user *domain.User) error {
	query := r.rebind(`
		UPDATE users
		SET
			password_hash = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, user.PasswordHash, user.ID, user.Version).Scan(&user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, sub_role, created_at, version FROM users ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.SubRole, nullableTime{&user.CreatedAt}, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CreateUser 在邮箱已被注册时返回 domain.ErrDuplicateEmail
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := r.rebind(`
		INSERT INTO users (name, email, password_hash, role, sub_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version
	`)

	createdAt := time.Now().UTC()
	args := []any{user.Name, user.Email, user.PasswordHash, user.Role, user.SubRole, createdAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Version); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	user.CreatedAt = createdAt

	return nil
}

func (r *Repository) CheckEmailIfExists(ctx context.Context, email string) (bool, error) {
	isExists := false

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := r.rebind(`
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`)
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}
