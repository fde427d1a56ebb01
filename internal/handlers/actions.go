package handlers

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/iamwavecut/gatebot/internal/errors"
)

type ActionKind string

// Callback payloads are stable wire values; renaming one orphans every
// keyboard already sitting in users' chats.
const (
	ActionCancel           ActionKind = "cancel"
	ActionSubmit           ActionKind = "submit"
	ActionJoin             ActionKind = "joinbtn"
	ActionTicket           ActionKind = "ticket"
	ActionImages           ActionKind = "imagebutton"
	ActionGroups           ActionKind = "groups_join"
	ActionToggleGroup      ActionKind = "group"
	ActionPickCategory     ActionKind = "category"
	ActionSendAnnouncement ActionKind = "send_announcement"
)

// Action is one decoded callback payload. ID accompanies the parameterized
// kinds (group toggles and category picks) and is zero otherwise.
type Action struct {
	Kind ActionKind
	ID   int64
}

func ParseAction(data string) (Action, error) {
	switch ActionKind(data) {
	case ActionCancel, ActionSubmit, ActionJoin, ActionTicket, ActionImages, ActionGroups, ActionSendAnnouncement:
		return Action{Kind: ActionKind(data)}, nil
	}

	for _, kind := range []ActionKind{ActionToggleGroup, ActionPickCategory} {
		prefix := string(kind) + "_"
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil {
			return Action{}, errors.WithMessagef(apperrors.ErrMalformedPayload, "bad %s id in %q", kind, data)
		}
		return Action{Kind: kind, ID: id}, nil
	}

	return Action{}, errors.WithMessagef(apperrors.ErrMalformedPayload, "unknown callback %q", data)
}

// Payload renders a bare, unparameterized kind to its wire form.
func (k ActionKind) Payload() string {
	return Action{Kind: k}.Payload()
}

// Payload renders the action back to its wire form for keyboard buttons.
func (a Action) Payload() string {
	switch a.Kind {
	case ActionToggleGroup, ActionPickCategory:
		return string(a.Kind) + "_" + strconv.FormatInt(a.ID, 10)
	default:
		return string(a.Kind)
	}
}
