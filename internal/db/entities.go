package db

import (
	"time"
)

type UserStatus string

const (
	UserStatusPending UserStatus = "pending"
	UserStatusMember  UserStatus = "member"
	UserStatusBan     UserStatus = "ban"
)

type (
	// UserAccess is the persistent per-user admission record. A ban is
	// permanent until an explicit administrator unban resets it to pending.
	UserAccess struct {
		UserID        int64      `db:"user_id"`
		Status        UserStatus `db:"status"`
		CooldownUntil *time.Time `db:"cooldown_until"`
		CreatedAt     time.Time  `db:"created_at"`
	}

	Group struct {
		ID   int64  `db:"group_id"`
		Name string `db:"group_name"`
	}

	TicketCategory struct {
		ID          int64  `db:"id"`
		Name        string `db:"category_name"`
		Description string `db:"description"`
	}

	Ticket struct {
		ID         int64     `db:"id"`
		Ref        string    `db:"ref"`
		CategoryID int64     `db:"category_id"`
		UserID     int64     `db:"user_id"`
		Message    string    `db:"message"`
		CreatedAt  time.Time `db:"created_at"`
	}
)

// OnCooldown reports whether the record carries an unexpired cooldown.
// Cooldowns are only meaningful while the status is pending.
func (u *UserAccess) OnCooldown(now time.Time) bool {
	if u == nil || u.Status != UserStatusPending || u.CooldownUntil == nil {
		return false
	}
	return now.Before(*u.CooldownUntil)
}

func (u *UserAccess) CooldownRemaining(now time.Time) time.Duration {
	if !u.OnCooldown(now) {
		return 0
	}
	return u.CooldownUntil.Sub(now)
}
