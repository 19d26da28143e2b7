package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"washwise/internal/api"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, email, password_hash, role, membership_plan, plan_expires_at, monthly_usage, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.Plan, &u.PlanExpiresAt, &u.MonthlyUsage, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, role, membership_plan, monthly_usage)
VALUES ($1, $2, $3, $4, $5, $6, 0)
`
	_, err := r.db.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, string(u.Plan))
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRow(ctx, q, username))
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Subscribe sets the membership plan. A paid plan gets a fresh expiry and a
// zeroed usage counter; dropping to none clears the expiry.
func (r *Repository) Subscribe(ctx context.Context, id, membershipPlan string, expiresAt *time.Time) (*User, error) {
	const q = `
UPDATE users
SET membership_plan = $2, plan_expires_at = $3, monthly_usage = 0
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, q, id, membershipPlan, expiresAt))
}

func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, passwordHash)
	return err
}

// GetForUpdate locks the user row inside a transaction so order pricing reads
// a consistent plan/usage snapshot.
func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(tx.QueryRow(ctx, q, id))
}

// SetMonthlyUsage persists the ledger's NewUsage within the order tx.
func SetMonthlyUsage(ctx context.Context, tx pgx.Tx, id string, usage int) error {
	const q = `UPDATE users SET monthly_usage = $2 WHERE id = $1`
	_, err := tx.Exec(ctx, q, id, usage)
	return err
}

// ResetAllMonthlyUsage zeroes every usage counter. Run on calendar month
// rollover.
func (r *Repository) ResetAllMonthlyUsage(ctx context.Context) (int64, error) {
	const q = `UPDATE users SET monthly_usage = 0 WHERE monthly_usage <> 0`
	ct, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// SetResetToken stores a password-reset token with its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const q = `UPDATE users SET reset_token = $2, reset_token_expires_at = $3 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, token, expiresAt)
	return err
}

// ConsumeResetToken atomically resolves an unexpired token to its user and
// clears it, so a token can only be used once.
func (r *Repository) ConsumeResetToken(ctx context.Context, token string) (*User, error) {
	const q = `
UPDATE users
SET reset_token = NULL, reset_token_expires_at = NULL
WHERE reset_token = $1 AND reset_token_expires_at > NOW()
RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, q, token))
}

// Identity implements api.IdentityStore for the auth middleware.
func (r *Repository) Identity(ctx context.Context, userID string) (*api.Identity, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &api.Identity{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}, nil
}
