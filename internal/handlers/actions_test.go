package handlers

import (
	"errors"
	"testing"

	apperrors "github.com/iamwavecut/gatebot/internal/errors"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		data string
		want Action
	}{
		{"cancel", Action{Kind: ActionCancel}},
		{"submit", Action{Kind: ActionSubmit}},
		{"joinbtn", Action{Kind: ActionJoin}},
		{"ticket", Action{Kind: ActionTicket}},
		{"imagebutton", Action{Kind: ActionImages}},
		{"groups_join", Action{Kind: ActionGroups}},
		{"send_announcement", Action{Kind: ActionSendAnnouncement}},
		{"group_42", Action{Kind: ActionToggleGroup, ID: 42}},
		{"category_7", Action{Kind: ActionPickCategory, ID: 7}},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.data)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", tc.data, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAction(%q) = %+v, want %+v", tc.data, got, tc.want)
		}
	}
}

func TestParseActionRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"", "unknown", "group_", "group_abc", "category_", "category_x1", "groupp_1"} {
		if _, err := ParseAction(data); !errors.Is(err, apperrors.ErrMalformedPayload) {
			t.Fatalf("ParseAction(%q) err = %v, want ErrMalformedPayload", data, err)
		}
	}
}

func TestKindPayloadParsesBack(t *testing.T) {
	t.Parallel()

	kinds := []ActionKind{
		ActionCancel, ActionSubmit, ActionJoin, ActionTicket,
		ActionImages, ActionGroups, ActionSendAnnouncement,
	}
	for _, kind := range kinds {
		got, err := ParseAction(kind.Payload())
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", kind.Payload(), err)
		}
		if got.Kind != kind {
			t.Fatalf("kind round trip %q = %q", kind, got.Kind)
		}
	}
}

func TestActionPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	actions := []Action{
		{Kind: ActionCancel},
		{Kind: ActionJoin},
		{Kind: ActionToggleGroup, ID: 13},
		{Kind: ActionPickCategory, ID: 2},
	}
	for _, action := range actions {
		got, err := ParseAction(action.Payload())
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", action.Payload(), err)
		}
		if got != action {
			t.Fatalf("round trip %+v = %+v", action, got)
		}
	}
}
