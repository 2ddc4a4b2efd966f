package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datamatch-api/internal/models"
)

const userColumns = `id, email, username, password_hash, role, is_verified, is_blocked, otp, otp_expiry, created_at, updated_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpsertPending creates an unverified user or refreshes the registration data of
// an existing unverified one. The stored id is written back to user.
func (r *UserRepository) UpsertPending(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	const query = `INSERT INTO users (email, username, password_hash, role, is_verified, is_blocked, otp, otp_expiry, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, FALSE, $5, $6, $7, $8)
ON CONFLICT (email) DO UPDATE SET username = EXCLUDED.username, password_hash = EXCLUDED.password_hash, role = EXCLUDED.role, otp = EXCLUDED.otp, otp_expiry = EXCLUDED.otp_expiry, updated_at = EXCLUDED.updated_at
RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Role, user.OTP, user.OTPExpiry, user.CreatedAt, user.UpdatedAt)
	if err := row.Scan(&user.ID); err != nil {
		return fmt.Errorf("upsert pending user: %w", err)
	}
	return nil
}

// Create inserts a fully specified user, used for seeding administrators.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (email, username, password_hash, role, is_verified, is_blocked, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Role, user.IsVerified, user.IsBlocked, user.CreatedAt, user.UpdatedAt)
	if err := row.Scan(&user.ID); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetOTP stores a one-time code and its expiry.
func (r *UserRepository) SetOTP(ctx context.Context, id int64, code string, expiry time.Time) error {
	const query = `UPDATE users SET otp = $2, otp_expiry = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, code, expiry, time.Now().UTC()); err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return nil
}

// MarkVerified flags the account verified and clears the one-time code.
func (r *UserRepository) MarkVerified(ctx context.Context, id int64) error {
	const query = `UPDATE users SET is_verified = TRUE, otp = NULL, otp_expiry = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	return nil
}

// ClearOTP removes any pending one-time code.
func (r *UserRepository) ClearOTP(ctx context.Context, id int64) error {
	const query = `UPDATE users SET otp = NULL, otp_expiry = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}

// UpdatePassword stores a new hash and clears the one-time code used to authorize it.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, otp = NULL, otp_expiry = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateRole changes the role of a user. It returns sql.ErrNoRows when no user matches.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireAffected(res)
}

// ToggleBlocked flips the blocked flag and returns the new value.
func (r *UserRepository) ToggleBlocked(ctx context.Context, id int64) (bool, error) {
	const query = `UPDATE users SET is_blocked = NOT is_blocked, updated_at = $2 WHERE id = $1 RETURNING is_blocked`
	var blocked bool
	if err := r.db.GetContext(ctx, &blocked, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return false, fmt.Errorf("toggle blocked: %w", err)
	}
	return blocked, nil
}

// ExistsWithRole reports whether any user holds role.
func (r *UserRepository) ExistsWithRole(ctx context.Context, role models.UserRole) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, role); err != nil {
		return false, fmt.Errorf("check role exists: %w", err)
	}
	return exists, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(username) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", userColumns, baseQuery, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
