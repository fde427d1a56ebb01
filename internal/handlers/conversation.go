package handlers

import (
	"context"
	"strconv"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/access"
	"github.com/iamwavecut/gatebot/internal/bot"
	"github.com/iamwavecut/gatebot/internal/config"
	"github.com/iamwavecut/gatebot/internal/db"
	apperrors "github.com/iamwavecut/gatebot/internal/errors"
	"github.com/iamwavecut/gatebot/internal/observability"
	"github.com/iamwavecut/gatebot/internal/session"
)

// Conversation drives the private-chat onboarding machine: entry
// evaluation, the join flow, media relay, tickets and announcements. Every
// branch ends in an explicit user-visible response.
type Conversation struct {
	transport  bot.Transport
	store      db.Client
	controller *access.Controller
	sessions   *session.Manager
	cfg        *config.Config
}

func NewConversation(transport bot.Transport, store db.Client, controller *access.Controller, sessions *session.Manager, cfg *config.Config) *Conversation {
	return &Conversation{
		transport:  transport,
		store:      store,
		controller: controller,
		sessions:   sessions,
		cfg:        cfg,
	}
}

func (c *Conversation) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if chat == nil || user == nil {
		return true, nil
	}
	if !chat.IsPrivate() || user.IsBot {
		return true, nil
	}

	if u.CallbackQuery != nil {
		return c.handleCallback(ctx, u.CallbackQuery, chat, user)
	}

	m := u.Message
	if m == nil {
		return true, nil
	}
	c.getLogEntry().WithFields(log.Fields{
		"chat_id": chat.ID,
		"user_id": user.ID,
		"user":    bot.GetUN(user),
	}).Trace("incoming private message")

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			return c.handleStart(ctx, chat, user)
		case "announcement":
			return c.handleAnnouncementCommand(ctx, chat, user)
		default:
			return true, nil
		}
	}

	sess, ok := c.sessions.Active(chat.ID)
	if !ok {
		// No conversation in flight, so no keyboard whose buttons would
		// be honored; entry goes through /start.
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("menu_fallback"), nil)
		return false, err
	}
	defer c.sessions.Touch(chat.ID)

	switch sess.State {
	case session.StateImageSubmission:
		return c.handleMedia(ctx, m, chat, user)
	case session.StateTicketSubmission:
		return c.handleTicketText(ctx, m, chat, user, sess)
	case session.StateAnnouncementDraft:
		return c.handleAnnouncementText(ctx, m, chat, sess)
	case session.StateDefault:
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("menu_fallback"), menuKeyboard())
		return false, err
	default:
		// Mid-flow states advance through their buttons, not free text.
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("use_buttons"), nil)
		return false, err
	}
}

func (c *Conversation) handleStart(ctx context.Context, chat *api.Chat, user *api.User) (bool, error) {
	decision, err := c.controller.EvaluateEntry(ctx, user.ID)
	if err != nil {
		if _, sendErr := c.transport.SendText(ctx, chat.ID, 0, Text("try_later"), nil); sendErr != nil {
			c.getLogEntry().WithError(sendErr).Error("cant send degraded reply")
		}
		return false, errors.WithMessage(err, "entry evaluation failed")
	}
	observability.RecordAdmission(string(decision.Outcome))

	switch decision.Outcome {
	case access.OutcomeGranted:
		c.sessions.Begin(chat.ID, user.ID)
		_, err = c.transport.SendText(ctx, chat.ID, 0, Text("menu_prompt"), menuKeyboard())
		return false, err

	case access.OutcomeNewUser, access.OutcomeRemovedMember:
		sess := c.sessions.Begin(chat.ID, user.ID)
		sess.State = session.StateJoinFlow
		_, err = c.transport.SendText(ctx, chat.ID, 0, Text("join_required"), joinKeyboard())
		return false, err

	case access.OutcomeBanned:
		if decision.Escalated {
			c.notifyBanEscalation(ctx, user)
		}
		_, err = c.transport.SendText(ctx, chat.ID, 0, Text("banned"), nil)
		return false, err

	case access.OutcomeCooldown:
		_, err = c.transport.SendText(ctx, chat.ID, 0, cooldownText(decision.CooldownRemaining), nil)
		return false, err

	case access.OutcomePendingNotMember:
		_, err = c.transport.SendText(ctx, chat.ID, 0, Text("pending_wait"), nil)
		return false, err

	default:
		_, err = c.transport.SendText(ctx, chat.ID, 0, Text("try_later"), nil)
		return false, err
	}
}

func (c *Conversation) handleCallback(ctx context.Context, query *api.CallbackQuery, chat *api.Chat, user *api.User) (bool, error) {
	action, err := ParseAction(query.Data)
	if err != nil {
		if errors.Is(err, apperrors.ErrMalformedPayload) {
			log.WithField("data", query.Data).Warn("dropping malformed callback")
			return false, c.transport.AnswerCallback(ctx, query.ID, "")
		}
		return false, err
	}

	if err := c.transport.AnswerCallback(ctx, query.ID, ""); err != nil {
		log.WithError(err).Warn("cant answer callback")
	}
	if query.Message == nil {
		return false, nil
	}
	messageID := query.Message.MessageID

	if action.Kind == ActionCancel {
		c.sessions.Clear(chat.ID)
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("cancelled"), nil)
	}

	// A button is honored only while the conversation is in a state whose
	// keyboard offered it. Anything else is a stale button from an expired
	// or superseded conversation; entry goes through /start alone.
	sess, ok := c.sessions.Active(chat.ID)
	if !ok || !stateOffers(sess.State, action.Kind) {
		c.getLogEntry().WithFields(log.Fields{
			"chat_id": chat.ID,
			"action":  string(action.Kind),
		}).Debug("dropping stale callback")
		return false, nil
	}
	defer c.sessions.Touch(chat.ID)

	switch action.Kind {
	case ActionImages:
		sess.State = session.StateImageSubmission
		_, err := c.transport.SendText(ctx, chat.ID, 0, Text("media_prompt"), cancelKeyboard())
		return false, err

	case ActionGroups:
		return c.handleGroupsMenu(ctx, chat, user, messageID)

	case ActionToggleGroup:
		return c.handleGroupToggle(ctx, chat, user, messageID, action.ID)

	case ActionSubmit:
		return c.handleGroupSubmit(ctx, chat, user, messageID)

	case ActionJoin:
		return c.handleJoinRequest(ctx, chat, user, messageID)

	case ActionTicket:
		return c.handleTicketMenu(ctx, chat, user, messageID)

	case ActionPickCategory:
		sess.SelectedCategoryID = action.ID
		sess.State = session.StateTicketSubmission
		return false, c.transport.EditText(ctx, chat.ID, messageID, Text("ticket_details"), nil)

	case ActionSendAnnouncement:
		return c.handleAnnouncementSend(ctx, chat, messageID)

	default:
		return false, errors.WithMessagef(apperrors.ErrMalformedPayload, "unrouted callback %q", query.Data)
	}
}

// actionStates maps each callback action to the conversation states whose
// keyboards offer it. Cancel is exempt and always honored.
var actionStates = map[ActionKind][]session.State{
	ActionImages:           {session.StateDefault},
	ActionGroups:           {session.StateDefault, session.StateJoinFlow},
	ActionTicket:           {session.StateDefault},
	ActionJoin:             {session.StateJoinFlow},
	ActionToggleGroup:      {session.StateJoinFlow},
	ActionSubmit:           {session.StateJoinFlow},
	ActionPickCategory:     {session.StateDefault},
	ActionSendAnnouncement: {session.StateDefault},
}

func stateOffers(state session.State, kind ActionKind) bool {
	for _, offered := range actionStates[kind] {
		if offered == state {
			return true
		}
	}
	return false
}

// session returns the chat's live session, starting a fresh default one if
// the previous conversation idled out.
func (c *Conversation) session(chatID, userID int64) *session.Session {
	if sess, ok := c.sessions.Active(chatID); ok {
		return sess
	}
	return c.sessions.Begin(chatID, userID)
}

func (c *Conversation) notifyBanEscalation(ctx context.Context, user *api.User) {
	text := "User @" + userHandle(user) + " (ID: " + formatID(user.ID) + ") has been banned for excessive usage."
	if _, err := c.transport.SendText(ctx, c.cfg.TargetGroupID, c.cfg.Topics.Alerts, text, nil); err != nil {
		log.WithError(err).Error("cant notify moderators about ban")
	}
}

// cooldownText renders the remaining wait, omitting the hours clause when
// the remainder is under an hour.
func cooldownText(remaining time.Duration) string {
	total := int(remaining.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return Textf("cooldown_long", hours, minutes, seconds)
	}
	return Textf("cooldown_short", minutes, seconds)
}

func (c *Conversation) getLogEntry() *log.Entry {
	return log.WithField("object", "Conversation")
}

func userHandle(user *api.User) string {
	if user == nil || user.UserName == "" {
		return "No username"
	}
	return user.UserName
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
