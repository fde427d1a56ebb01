package handlers

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/db"
	"github.com/iamwavecut/gatebot/internal/observability"
	"github.com/iamwavecut/gatebot/internal/session"
)

// handleTicketMenu shows the category catalogue with descriptions and a
// pick keyboard.
func (c *Conversation) handleTicketMenu(ctx context.Context, chat *api.Chat, user *api.User, messageID int) (bool, error) {
	categories, err := c.store.ListTicketCategories(ctx)
	if err != nil {
		log.WithError(err).Error("cant list ticket categories")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	var sb strings.Builder
	sb.WriteString(Text("ticket_categories"))
	sb.WriteString("\n\n")
	for _, category := range categories {
		sb.WriteString(category.Name)
		sb.WriteString(":\n")
		sb.WriteString(category.Description)
		sb.WriteString("\n\n")
	}

	c.session(chat.ID, user.ID)
	if err := c.transport.EditText(ctx, chat.ID, messageID, strings.TrimRight(sb.String(), "\n"), nil); err != nil {
		return false, err
	}
	_, err = c.transport.SendText(ctx, chat.ID, 0, Text("ticket_pick"), categoryKeyboard(categories))
	return false, err
}

// handleTicketText persists the ticket under a fresh reference and forwards
// it to the moderation topic. A transient store failure gets one retry
// before the user is told to try later; the state is kept either way so the
// text can simply be resent.
func (c *Conversation) handleTicketText(ctx context.Context, m *api.Message, chat *api.Chat, user *api.User, sess *session.Session) (bool, error) {
	if strings.TrimSpace(m.Text) == "" {
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("ticket_details"), cancelKeyboard())
		return false, err
	}

	ticket := &db.Ticket{
		Ref:        uuid.New(),
		CategoryID: sess.SelectedCategoryID,
		UserID:     user.ID,
		Message:    m.Text,
	}
	if _, err := c.store.CreateTicket(ctx, ticket); err != nil {
		log.WithError(err).Warn("ticket insert failed, retrying once")
		if _, err = c.store.CreateTicket(ctx, ticket); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("cant persist ticket")
			_, sendErr := c.transport.SendText(ctx, chat.ID, 0, Text("try_later"), cancelKeyboard())
			return false, sendErr
		}
	}

	forward := fmt.Sprintf("New ticket %s from @%s in category %s: %s", ticket.Ref, userHandle(user), c.categoryName(ctx, sess.SelectedCategoryID), m.Text)
	if _, err := c.transport.SendText(ctx, c.cfg.TargetGroupID, c.cfg.Topics.Tickets, forward, nil); err != nil {
		log.WithError(err).Error("cant forward ticket")
	}

	observability.RecordTicketSubmitted()
	c.sessions.Clear(chat.ID)
	_, err := c.transport.SendText(ctx, chat.ID, 0, Text("ticket_submitted"), nil)
	return false, err
}

func (c *Conversation) categoryName(ctx context.Context, categoryID int64) string {
	category, err := c.store.GetTicketCategory(ctx, categoryID)
	if err != nil || category == nil {
		return formatID(categoryID)
	}
	return category.Name
}
