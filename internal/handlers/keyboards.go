package handlers

import (
	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/gatebot/internal/db"
)

func menuKeyboard() *api.InlineKeyboardMarkup {
	markup := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(Text("btn_images"), ActionImages.Payload()),
			api.NewInlineKeyboardButtonData(Text("btn_groups"), ActionGroups.Payload()),
			api.NewInlineKeyboardButtonData(Text("btn_ticket"), ActionTicket.Payload()),
		),
	)
	return &markup
}

func cancelKeyboard() *api.InlineKeyboardMarkup {
	markup := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(Text("btn_cancel"), ActionCancel.Payload()),
		),
	)
	return &markup
}

func joinKeyboard() *api.InlineKeyboardMarkup {
	markup := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(Text("btn_join"), ActionJoin.Payload()),
		),
	)
	return &markup
}

func announcementConfirmKeyboard() *api.InlineKeyboardMarkup {
	markup := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(Text("btn_send"), ActionSendAnnouncement.Payload()),
			api.NewInlineKeyboardButtonData(Text("btn_cancel"), ActionCancel.Payload()),
		),
	)
	return &markup
}

// groupSelectionKeyboard lays out toggle buttons two per row, marking the
// selected ones, with a Submit/Cancel action row at the bottom.
func groupSelectionKeyboard(groups []db.Group, selected func(int64) bool) *api.InlineKeyboardMarkup {
	buttons := make([]api.InlineKeyboardButton, 0, len(groups))
	for _, group := range groups {
		label := group.Name
		if selected(group.ID) {
			label = "✓ " + label
		}
		buttons = append(buttons, api.NewInlineKeyboardButtonData(label, Action{Kind: ActionToggleGroup, ID: group.ID}.Payload()))
	}

	rows := pairRows(buttons)
	rows = append(rows, api.NewInlineKeyboardRow(
		api.NewInlineKeyboardButtonData(Text("btn_submit"), ActionSubmit.Payload()),
		api.NewInlineKeyboardButtonData(Text("btn_cancel"), ActionCancel.Payload()),
	))

	markup := api.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// categoryKeyboard lays out category picks two per row with a trailing
// Cancel row.
func categoryKeyboard(categories []db.TicketCategory) *api.InlineKeyboardMarkup {
	buttons := make([]api.InlineKeyboardButton, 0, len(categories))
	for _, category := range categories {
		buttons = append(buttons, api.NewInlineKeyboardButtonData(category.Name, Action{Kind: ActionPickCategory, ID: category.ID}.Payload()))
	}

	rows := pairRows(buttons)
	rows = append(rows, api.NewInlineKeyboardRow(
		api.NewInlineKeyboardButtonData(Text("btn_cancel"), ActionCancel.Payload()),
	))

	markup := api.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func pairRows(buttons []api.InlineKeyboardButton) [][]api.InlineKeyboardButton {
	rows := make([][]api.InlineKeyboardButton, 0, len(buttons)/2+1)
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, api.NewInlineKeyboardRow(buttons[i:end]...))
	}
	return rows
}
