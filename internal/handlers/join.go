package handlers

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/bot"
	"github.com/iamwavecut/gatebot/internal/session"
)

// handleJoinRequest registers the user's wish to enter the whitelist group
// and pings the moderation topic, unless an unexpired cooldown blocks it.
func (c *Conversation) handleJoinRequest(ctx context.Context, chat *api.Chat, user *api.User, messageID int) (bool, error) {
	result, err := c.controller.RegisterJoinRequest(ctx, user.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("cant register join request")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	if result.Banned {
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("banned"), nil)
	}

	if result.OnCooldown {
		return false, c.transport.EditText(ctx, chat.ID, messageID, cooldownText(result.CooldownRemaining), nil)
	}

	if _, err := c.transport.SendText(ctx, c.cfg.TargetGroupID, c.cfg.Topics.JoinRequests, joinReviewText(user), nil); err != nil {
		log.WithError(err).Error("cant notify moderators about join request")
	}

	c.sessions.Clear(chat.ID)
	return false, c.transport.EditText(ctx, chat.ID, messageID, Text("join_registered"), nil)
}

func (c *Conversation) handleGroupsMenu(ctx context.Context, chat *api.Chat, user *api.User, messageID int) (bool, error) {
	groups, err := c.store.ListGroups(ctx)
	if err != nil {
		log.WithError(err).Error("cant list groups")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	sess := c.session(chat.ID, user.ID)
	sess.State = session.StateJoinFlow
	return false, c.transport.EditText(ctx, chat.ID, messageID, Text("groups_prompt"), groupSelectionKeyboard(groups, sess.HasGroupSelected))
}

// handleGroupToggle flips one group in the selection and repaints the
// message with the current picks.
func (c *Conversation) handleGroupToggle(ctx context.Context, chat *api.Chat, user *api.User, messageID int, groupID int64) (bool, error) {
	groups, err := c.store.ListGroups(ctx)
	if err != nil {
		log.WithError(err).Error("cant list groups")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	sess := c.session(chat.ID, user.ID)
	sess.State = session.StateJoinFlow
	sess.ToggleGroup(groupID)

	var picked []string
	for _, group := range groups {
		if sess.HasGroupSelected(group.ID) {
			picked = append(picked, group.Name)
		}
	}
	text := Text("groups_none")
	if len(picked) > 0 {
		text = Text("groups_selected") + "\n" + strings.Join(picked, "\n")
	}
	return false, c.transport.EditText(ctx, chat.ID, messageID, text, groupSelectionKeyboard(groups, sess.HasGroupSelected))
}

// handleGroupSubmit forwards the final selection to the moderation topic.
// An empty selection is rejected without losing the conversation state.
func (c *Conversation) handleGroupSubmit(ctx context.Context, chat *api.Chat, user *api.User, messageID int) (bool, error) {
	sess := c.session(chat.ID, user.ID)
	if len(sess.GroupIDs()) == 0 {
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("groups_require_one"), groupSelectionKeyboardFromStore(ctx, c, sess))
	}

	groups, err := c.store.ListGroups(ctx)
	if err != nil {
		log.WithError(err).Error("cant list groups")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	var picked []string
	for _, group := range groups {
		if sess.HasGroupSelected(group.ID) {
			picked = append(picked, group.Name)
		}
	}

	text := fmt.Sprintf("Username: @%s selected the following groups: %s", userHandle(user), strings.Join(picked, ", "))
	if _, err := c.transport.SendText(ctx, c.cfg.TargetGroupID, c.cfg.Topics.Selections, text, nil); err != nil {
		log.WithError(err).Error("cant forward group selections")
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("try_later"), nil)
	}

	c.sessions.Clear(chat.ID)
	return false, c.transport.EditText(ctx, chat.ID, messageID, Text("groups_submitted"), nil)
}

func groupSelectionKeyboardFromStore(ctx context.Context, c *Conversation, sess *session.Session) *api.InlineKeyboardMarkup {
	groups, err := c.store.ListGroups(ctx)
	if err != nil {
		return nil
	}
	return groupSelectionKeyboard(groups, sess.HasGroupSelected)
}

// joinReviewText is the moderator-facing summary; users without a public
// username are flagged since moderators cannot DM them back.
func joinReviewText(user *api.User) string {
	if user.UserName == "" {
		return fmt.Sprintf("User ID: %d, Name: %s. The user does not have a username. Please review their request.", user.ID, bot.GetFullName(user))
	}
	return fmt.Sprintf("User ID: %d, Username: @%s. Please review their request.", user.ID, user.UserName)
}
