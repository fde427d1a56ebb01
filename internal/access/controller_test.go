package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iamwavecut/gatebot/internal/db"
	apperrors "github.com/iamwavecut/gatebot/internal/errors"
	"github.com/iamwavecut/gatebot/internal/limiter"
)

type fakeStore struct {
	records map[int64]*db.UserAccess
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[int64]*db.UserAccess{}}
}

func (s *fakeStore) GetUserAccess(_ context.Context, userID int64) (*db.UserAccess, error) {
	if s.failing {
		return nil, errors.New("store down")
	}
	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (s *fakeStore) UpsertUserAccess(_ context.Context, access *db.UserAccess) error {
	if s.failing {
		return errors.New("store down")
	}
	clone := *access
	s.records[access.UserID] = &clone
	return nil
}

func (s *fakeStore) SetUserStatus(_ context.Context, userID int64, status db.UserStatus) error {
	if s.failing {
		return errors.New("store down")
	}
	record, ok := s.records[userID]
	if !ok {
		record = &db.UserAccess{UserID: userID}
		s.records[userID] = record
	}
	record.Status = status
	return nil
}

func (s *fakeStore) SetUserCooldown(_ context.Context, userID int64, until *time.Time) error {
	if s.failing {
		return errors.New("store down")
	}
	record, ok := s.records[userID]
	if !ok {
		record = &db.UserAccess{UserID: userID, Status: db.UserStatusPending}
		s.records[userID] = record
	}
	record.CooldownUntil = until
	return nil
}

type fakeOracle struct {
	members map[int64]bool
}

func (o *fakeOracle) IsMember(_ context.Context, userID int64) bool {
	return o.members[userID]
}

func newTestController(store *fakeStore, oracle *fakeOracle) *Controller {
	c := NewController(store, oracle, limiter.New(time.Hour, 5), 6*time.Hour)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	return c
}

func TestEvaluateEntryNewMemberIsRecordedAndGranted(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	c := newTestController(store, &fakeOracle{members: map[int64]bool{7: true}})

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("EvaluateEntry: %v", err)
	}
	if decision.Outcome != OutcomeGranted {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeGranted)
	}
	record := store.records[7]
	if record == nil || record.Status != db.UserStatusMember {
		t.Fatalf("record = %+v, want member", record)
	}
}

func TestEvaluateEntryUnknownNonMemberCreatesNoRecord(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("EvaluateEntry: %v", err)
	}
	if decision.Outcome != OutcomeNewUser {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeNewUser)
	}
	if len(store.records) != 0 {
		t.Fatalf("records = %d, want none until the user joins", len(store.records))
	}
}

func TestEvaluateEntryBannedUserStaysBanned(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusBan}
	// Even a user who is now a group member stays banned until an unban.
	c := newTestController(store, &fakeOracle{members: map[int64]bool{7: true}})

	for i := 0; i < 3; i++ {
		decision, err := c.EvaluateEntry(context.Background(), 7)
		if err != nil {
			t.Fatalf("EvaluateEntry: %v", err)
		}
		if decision.Outcome != OutcomeBanned {
			t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeBanned)
		}
		if decision.Escalated {
			t.Fatal("existing ban must not re-escalate")
		}
	}
	if store.records[7].Status != db.UserStatusBan {
		t.Fatalf("status = %q, want ban", store.records[7].Status)
	}
}

func TestEvaluateEntrySixthAttemptEscalatesOnce(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusPending}
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	for i := 1; i <= 5; i++ {
		decision, err := c.EvaluateEntry(context.Background(), 7)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if decision.Outcome == OutcomeBanned {
			t.Fatalf("attempt %d banned early", i)
		}
	}

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("sixth attempt: %v", err)
	}
	if decision.Outcome != OutcomeBanned || !decision.Escalated {
		t.Fatalf("sixth attempt = %+v, want escalated ban", decision)
	}
	if store.records[7].Status != db.UserStatusBan {
		t.Fatalf("status = %q, want ban", store.records[7].Status)
	}

	// Further attempts report banned without the escalation marker, so a
	// single moderator notification is sent.
	decision, err = c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("seventh attempt: %v", err)
	}
	if decision.Outcome != OutcomeBanned || decision.Escalated {
		t.Fatalf("seventh attempt = %+v, want plain banned", decision)
	}
}

func TestEvaluateEntryPendingOnCooldownReportsRemaining(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	until := c.now().Add(300 * time.Second)
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusPending, CooldownUntil: &until}

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("EvaluateEntry: %v", err)
	}
	if decision.Outcome != OutcomeCooldown {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeCooldown)
	}
	if decision.CooldownRemaining != 300*time.Second {
		t.Fatalf("remaining = %v, want 300s", decision.CooldownRemaining)
	}
}

func TestEvaluateEntryPendingNotMemberRefreshesCooldown(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusPending}
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("EvaluateEntry: %v", err)
	}
	if decision.Outcome != OutcomePendingNotMember {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomePendingNotMember)
	}
	record := store.records[7]
	if record.CooldownUntil == nil || !record.CooldownUntil.Equal(c.now().Add(6*time.Hour)) {
		t.Fatalf("cooldown = %v, want now+6h", record.CooldownUntil)
	}
}

func TestEvaluateEntryPendingPromotedWhenMembershipAppears(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusPending}
	c := newTestController(store, &fakeOracle{members: map[int64]bool{7: true}})

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("EvaluateEntry: %v", err)
	}
	if decision.Outcome != OutcomeGranted {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeGranted)
	}
	if store.records[7].Status != db.UserStatusMember {
		t.Fatalf("status = %q, want member", store.records[7].Status)
	}
}

func TestEvaluateEntryMemberDemotedWhenRemovedFromGroup(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusMember}
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	decision, err := c.EvaluateEntry(context.Background(), 7)
	if err != nil {
		t.Fatalf("EvaluateEntry: %v", err)
	}
	if decision.Outcome != OutcomeRemovedMember {
		t.Fatalf("outcome = %q, want %q", decision.Outcome, OutcomeRemovedMember)
	}
	if store.records[7].Status != db.UserStatusPending {
		t.Fatalf("status = %q, want pending", store.records[7].Status)
	}
}

func TestRegisterJoinRequestSetsPendingWithCooldown(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	result, err := c.RegisterJoinRequest(context.Background(), 7)
	if err != nil {
		t.Fatalf("RegisterJoinRequest: %v", err)
	}
	if result.OnCooldown {
		t.Fatal("first join request must not be on cooldown")
	}
	record := store.records[7]
	if record == nil || record.Status != db.UserStatusPending {
		t.Fatalf("record = %+v, want pending", record)
	}
	if record.CooldownUntil == nil || !record.CooldownUntil.Equal(c.now().Add(6*time.Hour)) {
		t.Fatalf("cooldown = %v, want now+6h", record.CooldownUntil)
	}

	// Repeating while the cooldown runs is rejected with the remaining time.
	result, err = c.RegisterJoinRequest(context.Background(), 7)
	if err != nil {
		t.Fatalf("second RegisterJoinRequest: %v", err)
	}
	if !result.OnCooldown || result.CooldownRemaining != 6*time.Hour {
		t.Fatalf("second result = %+v, want 6h cooldown", result)
	}
}

func TestRegisterJoinRequestRefusesBannedUser(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusBan}
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	result, err := c.RegisterJoinRequest(context.Background(), 7)
	if err != nil {
		t.Fatalf("RegisterJoinRequest: %v", err)
	}
	if !result.Banned {
		t.Fatalf("result = %+v, want Banned", result)
	}
	record := store.records[7]
	if record.Status != db.UserStatusBan || record.CooldownUntil != nil {
		t.Fatalf("record = %+v, want untouched ban", record)
	}
}

func TestUnbanResetsToPendingAndClearsCooldown(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	until := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	store.records[7] = &db.UserAccess{UserID: 7, Status: db.UserStatusBan, CooldownUntil: &until}
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	// Exhaust the counter first so Unban provably resets it.
	for i := 0; i < 6; i++ {
		c.limiter.RecordAttempt(7)
	}

	if err := c.Unban(context.Background(), 7); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	record := store.records[7]
	if record.Status != db.UserStatusPending || record.CooldownUntil != nil {
		t.Fatalf("record = %+v, want pending with no cooldown", record)
	}

	verdict := c.limiter.RecordAttempt(7)
	if verdict.Count != 1 {
		t.Fatalf("count after unban = %d, want 1", verdict.Count)
	}
}

func TestEvaluateEntryStoreFailureIsSurfaced(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.failing = true
	c := newTestController(store, &fakeOracle{members: map[int64]bool{}})

	_, err := c.EvaluateEntry(context.Background(), 7)
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}
