// Package session holds the per-chat conversational state machine data.
// Sessions live in process memory only; an in-flight multi-step form is
// acceptable loss on restart.
package session

import (
	"sort"
	"time"
)

type State string

const (
	StateDefault           State = "default"
	StateImageSubmission   State = "image_submission"
	StateJoinFlow          State = "join_flow"
	StateTicketSubmission  State = "ticket_submission"
	StateAnnouncementDraft State = "announcement_draft"
)

// Session is the explicit conversational state for one chat: the current
// machine state plus the transient drafts the workflows accumulate.
// Mutation is safe only inside the chat's serialized dispatch lane.
type Session struct {
	ChatID             int64
	UserID             int64
	State              State
	SelectedCategoryID int64
	SelectedGroups     map[int64]struct{}
	AnnouncementDraft  string
	UpdatedAt          time.Time
}

// ToggleGroup flips the group's presence in the selection set.
func (s *Session) ToggleGroup(groupID int64) {
	if s.SelectedGroups == nil {
		s.SelectedGroups = map[int64]struct{}{}
	}
	if _, ok := s.SelectedGroups[groupID]; ok {
		delete(s.SelectedGroups, groupID)
		return
	}
	s.SelectedGroups[groupID] = struct{}{}
}

func (s *Session) HasGroupSelected(groupID int64) bool {
	_, ok := s.SelectedGroups[groupID]
	return ok
}

func (s *Session) GroupIDs() []int64 {
	ids := make([]int64, 0, len(s.SelectedGroups))
	for id := range s.SelectedGroups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
