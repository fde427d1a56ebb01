package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/gatebot/internal/db"
)

func (c *sqliteClient) GetUserAccess(ctx context.Context, userID int64) (*db.UserAccess, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var access db.UserAccess
	err := c.db.GetContext(ctx, &access, `
		SELECT user_id, status, cooldown_until, created_at
		FROM users
		WHERE user_id = ?
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get access record for user %d: %w", userID, err)
	}
	return &access, nil
}

func (c *sqliteClient) UpsertUserAccess(ctx context.Context, access *db.UserAccess) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if access.CreatedAt.IsZero() {
		access.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO users (user_id, status, cooldown_until, created_at)
		VALUES (:user_id, :status, :cooldown_until, :created_at)
		ON CONFLICT(user_id) DO UPDATE SET
		status = excluded.status,
		cooldown_until = excluded.cooldown_until
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, access))
}

func (c *sqliteClient) SetUserStatus(ctx context.Context, userID int64, status db.UserStatus) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE user_id = ?`, status, userID)
	if err != nil {
		return fmt.Errorf("failed to set status for user %d: %w", userID, err)
	}
	return nil
}

func (c *sqliteClient) SetUserCooldown(ctx context.Context, userID int64, until *time.Time) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, `UPDATE users SET cooldown_until = ? WHERE user_id = ?`, until, userID)
	if err != nil {
		return fmt.Errorf("failed to set cooldown for user %d: %w", userID, err)
	}
	return nil
}
