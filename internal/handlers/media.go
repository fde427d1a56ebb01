package handlers

import (
	"context"
	"fmt"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/observability"
)

// handleMedia relays one photo or document to the moderation media topic
// with an attribution caption. Failures keep the submission state so the
// user can simply resend.
func (c *Conversation) handleMedia(ctx context.Context, m *api.Message, chat *api.Chat, user *api.User) (bool, error) {
	var relay func(context.Context) error
	caption := attributionCaption(user, m.Caption)

	switch {
	case len(m.Photo) > 0:
		// Telegram lists size variants smallest first.
		photo := m.Photo[len(m.Photo)-1]
		relay = func(ctx context.Context) error {
			return c.transport.SendPhoto(ctx, c.cfg.TargetGroupID, c.cfg.Topics.Media, photo.FileID, caption)
		}
	case m.Document != nil:
		doc := m.Document
		relay = func(ctx context.Context) error {
			return c.transport.SendDocument(ctx, c.cfg.TargetGroupID, c.cfg.Topics.Media, doc.FileID, caption)
		}
	default:
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("media_unsupported"), cancelKeyboard())
		return false, err
	}

	if err := relay(ctx); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("cant relay media")
		observability.RecordMediaRelay("failed")
		_, sendErr := c.transport.SendText(ctx, chat.ID, 0, Text("media_failed"), cancelKeyboard())
		return false, sendErr
	}

	observability.RecordMediaRelay("relayed")
	_, err := c.transport.SendText(ctx, chat.ID, 0, Text("media_processed"), cancelKeyboard())
	return false, err
}

func attributionCaption(user *api.User, original string) string {
	firstName := "No name"
	if user != nil && user.FirstName != "" {
		firstName = user.FirstName
	}
	if original == "" {
		original = "No caption"
	}
	return fmt.Sprintf("From: %s @%s\nCaption: %s", firstName, userHandle(user), original)
}
