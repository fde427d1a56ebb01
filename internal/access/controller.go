package access

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/db"
	apperrors "github.com/iamwavecut/gatebot/internal/errors"
	"github.com/iamwavecut/gatebot/internal/limiter"
)

const DefaultJoinCooldown = 6 * time.Hour

type accessStore interface {
	GetUserAccess(ctx context.Context, userID int64) (*db.UserAccess, error)
	UpsertUserAccess(ctx context.Context, access *db.UserAccess) error
	SetUserStatus(ctx context.Context, userID int64, status db.UserStatus) error
	SetUserCooldown(ctx context.Context, userID int64, until *time.Time) error
}

// Controller owns every access-status transition: entry evaluation, join
// registration, rate-limit escalation and the administrative unban.
type Controller struct {
	store    accessStore
	oracle   MembershipOracle
	limiter  *limiter.Limiter
	cooldown time.Duration
	now      func() time.Time
	logger   *log.Entry
}

func NewController(store accessStore, oracle MembershipOracle, lim *limiter.Limiter, cooldown time.Duration) *Controller {
	if cooldown <= 0 {
		cooldown = DefaultJoinCooldown
	}
	return &Controller{
		store:    store,
		oracle:   oracle,
		limiter:  lim,
		cooldown: cooldown,
		now:      time.Now,
		logger:   log.WithField("object", "AccessController"),
	}
}

// EvaluateEntry runs the admission state machine for one entry-command
// request. Store failures surface as ErrStoreUnavailable so the caller can
// degrade to a "try again later" reply with no state change.
func (c *Controller) EvaluateEntry(ctx context.Context, userID int64) (Decision, error) {
	record, err := c.store.GetUserAccess(ctx, userID)
	if err != nil {
		return Decision{}, storeFailure("load access record", err)
	}

	if record == nil {
		if c.oracle.IsMember(ctx, userID) {
			if err := c.store.UpsertUserAccess(ctx, &db.UserAccess{
				UserID: userID,
				Status: db.UserStatusMember,
			}); err != nil {
				return Decision{}, storeFailure("create member record", err)
			}
			return Decision{Outcome: OutcomeGranted}, nil
		}
		// No record yet: one is created only when the user elects to join.
		return Decision{Outcome: OutcomeNewUser}, nil
	}

	switch record.Status {
	case db.UserStatusBan:
		return Decision{Outcome: OutcomeBanned}, nil

	case db.UserStatusPending:
		return c.evaluatePending(ctx, record)

	case db.UserStatusMember:
		if c.oracle.IsMember(ctx, userID) {
			return Decision{Outcome: OutcomeGranted}, nil
		}
		if err := c.store.SetUserStatus(ctx, userID, db.UserStatusPending); err != nil {
			return Decision{}, storeFailure("demote removed member", err)
		}
		return Decision{Outcome: OutcomeRemovedMember}, nil

	default:
		return Decision{}, fmt.Errorf("access status %q for user %d: %w", record.Status, record.UserID, apperrors.ErrInvalidTransition)
	}
}

// evaluatePending applies rate-limit escalation before the cooldown and
// membership branches, so hammering the entry command during a cooldown
// still ends in a ban.
func (c *Controller) evaluatePending(ctx context.Context, record *db.UserAccess) (Decision, error) {
	verdict := c.limiter.RecordAttempt(record.UserID)
	if verdict.ShouldBan {
		if err := c.store.SetUserStatus(ctx, record.UserID, db.UserStatusBan); err != nil {
			return Decision{}, storeFailure("escalate to ban", err)
		}
		c.logger.WithFields(log.Fields{
			"user_id":  record.UserID,
			"attempts": verdict.Count,
		}).Warn("user banned for excessive entry attempts")
		return Decision{Outcome: OutcomeBanned, Escalated: true}, nil
	}

	now := c.now()
	if record.OnCooldown(now) {
		return Decision{
			Outcome:           OutcomeCooldown,
			CooldownRemaining: record.CooldownRemaining(now),
		}, nil
	}

	if c.oracle.IsMember(ctx, record.UserID) {
		if err := c.store.SetUserStatus(ctx, record.UserID, db.UserStatusMember); err != nil {
			return Decision{}, storeFailure("promote pending member", err)
		}
		return Decision{Outcome: OutcomeGranted}, nil
	}

	until := now.Add(c.cooldown)
	if err := c.store.SetUserCooldown(ctx, record.UserID, &until); err != nil {
		return Decision{}, storeFailure("refresh cooldown", err)
	}
	return Decision{Outcome: OutcomePendingNotMember}, nil
}

// RegisterJoinRequest handles the join button: a ban refuses outright, an
// unexpired cooldown blocks re-registration, otherwise the record is
// upserted to pending with a fresh cooldown so moderators get one request
// per window.
func (c *Controller) RegisterJoinRequest(ctx context.Context, userID int64) (JoinResult, error) {
	record, err := c.store.GetUserAccess(ctx, userID)
	if err != nil {
		return JoinResult{}, storeFailure("load access record", err)
	}

	// Only an explicit administrator unban lifts a ban; a stale join
	// button must not resurrect the record as pending.
	if record != nil && record.Status == db.UserStatusBan {
		return JoinResult{Banned: true}, nil
	}

	now := c.now()
	if record.OnCooldown(now) {
		return JoinResult{
			OnCooldown:        true,
			CooldownRemaining: record.CooldownRemaining(now),
		}, nil
	}

	until := now.Add(c.cooldown)
	if err := c.store.UpsertUserAccess(ctx, &db.UserAccess{
		UserID:        userID,
		Status:        db.UserStatusPending,
		CooldownUntil: &until,
	}); err != nil {
		return JoinResult{}, storeFailure("register join request", err)
	}
	return JoinResult{}, nil
}

// Unban resets a banned user to pending with no cooldown. The caller is
// responsible for the admin-role check.
func (c *Controller) Unban(ctx context.Context, userID int64) error {
	if err := c.store.SetUserStatus(ctx, userID, db.UserStatusPending); err != nil {
		return storeFailure("unban user", err)
	}
	if err := c.store.SetUserCooldown(ctx, userID, nil); err != nil {
		return storeFailure("clear cooldown", err)
	}
	c.limiter.Forget(userID)
	return nil
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, apperrors.ErrStoreUnavailable)
}
