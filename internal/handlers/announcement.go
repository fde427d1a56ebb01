package handlers

import (
	"context"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/session"
)

// handleAnnouncementCommand gates the announcement flow on whitelist-group
// admin rights. Denials are fail-closed: a failed role check reads the same
// as no permission.
func (c *Conversation) handleAnnouncementCommand(ctx context.Context, chat *api.Chat, user *api.User) (bool, error) {
	isAdmin, err := c.transport.IsChatAdmin(ctx, c.cfg.WhitelistGroupID, user.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("cant verify admin role")
	}
	if !isAdmin {
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("no_permission"), nil)
		return false, err
	}

	sess := c.session(chat.ID, user.ID)
	sess.State = session.StateAnnouncementDraft
	_, err = c.transport.SendText(ctx, chat.ID, 0, Text("announcement_prompt"), nil)
	return false, err
}

// handleAnnouncementText captures the draft and shows a preview with a
// Send/Cancel confirmation.
func (c *Conversation) handleAnnouncementText(ctx context.Context, m *api.Message, chat *api.Chat, sess *session.Session) (bool, error) {
	if strings.TrimSpace(m.Text) == "" {
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("announcement_prompt"), cancelKeyboard())
		return false, err
	}

	sess.AnnouncementDraft = m.Text
	sess.State = session.StateDefault
	_, err := c.transport.SendText(ctx, chat.ID, 0, Textf("announcement_preview", m.Text), announcementConfirmKeyboard())
	return false, err
}

// handleAnnouncementSend posts the confirmed draft to the whitelist group
// and pins it.
func (c *Conversation) handleAnnouncementSend(ctx context.Context, chat *api.Chat, messageID int) (bool, error) {
	sess, ok := c.sessions.Active(chat.ID)
	if !ok || sess.AnnouncementDraft == "" {
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	sentID, err := c.transport.SendText(ctx, c.cfg.WhitelistGroupID, 0, sess.AnnouncementDraft, nil)
	if err != nil {
		log.WithError(err).Error("cant send announcement")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}
	if err := c.transport.PinMessage(ctx, c.cfg.WhitelistGroupID, sentID); err != nil {
		log.WithError(err).Warn("cant pin announcement")
	}

	c.sessions.Clear(chat.ID)
	return false, c.transport.EditText(ctx, chat.ID, messageID, Text("announcement_sent"), nil)
}
