package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/frahmantamala/hr-management/internal"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/database"
)

// ResetTokenRepository tracks issued password reset tokens by jti so each can be used once.
type ResetTokenRepository struct {
	db *sqlx.DB
}

func NewResetTokenRepository(db *sqlx.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, t *userDatamodel.PasswordResetToken) error {
	q := database.Executor(ctx, r.db)
	query := `
INSERT INTO password_reset_tokens (user_id, token_id, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING id`
	if err := sqlx.GetContext(ctx, q, &t.ID, q.Rebind(query), t.UserID, t.TokenID, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// GetUsable returns the record only while it is unused and unexpired.
func (r *ResetTokenRepository) GetUsable(ctx context.Context, tokenID string, now time.Time) (*userDatamodel.PasswordResetToken, error) {
	q := database.Executor(ctx, r.db)
	query := `
SELECT id, user_id, token_id, expires_at, used_at, created_at
FROM password_reset_tokens
WHERE token_id = ? AND used_at IS NULL AND expires_at > ?`

	var t userDatamodel.PasswordResetToken
	if err := sqlx.GetContext(ctx, q, &t, q.Rebind(query), tokenID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return &t, nil
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	q := database.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE password_reset_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL"), at, id)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrInvalidToken
	}
	return nil
}

// RevokeAllForUser retires outstanding tokens so only the latest request can be redeemed.
func (r *ResetTokenRepository) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error {
	q := database.Executor(ctx, r.db)
	if _, err := q.ExecContext(ctx, q.Rebind("UPDATE password_reset_tokens SET used_at = ? WHERE user_id = ? AND used_at IS NULL"), at, userID); err != nil {
		return fmt.Errorf("revoke reset tokens: %w", err)
	}
	return nil
}
