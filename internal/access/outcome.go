package access

import "time"

// Outcome is the result of one admission evaluation. Outcomes are terminal
// per call; the conversation engine maps each to a next state and reply.
type Outcome string

const (
	OutcomeGranted          Outcome = "granted"
	OutcomeNewUser          Outcome = "new_user"
	OutcomeCooldown         Outcome = "cooldown"
	OutcomePendingNotMember Outcome = "pending_not_member"
	OutcomeRemovedMember    Outcome = "removed_member"
	OutcomeBanned           Outcome = "banned"
)

type Decision struct {
	Outcome Outcome

	// CooldownRemaining accompanies OutcomeCooldown.
	CooldownRemaining time.Duration

	// Escalated is set on the single evaluation that flipped the user to
	// banned through rate-limit abuse; the caller alerts moderators once.
	Escalated bool
}

// JoinResult reports a join-button registration attempt.
type JoinResult struct {
	Banned            bool
	OnCooldown        bool
	CooldownRemaining time.Duration
}
