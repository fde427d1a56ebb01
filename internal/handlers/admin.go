package handlers

import (
	"context"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/access"
	"github.com/iamwavecut/gatebot/internal/bot"
	"github.com/iamwavecut/gatebot/internal/config"
)

// Admin handles the moderator-only commands. It sits before the
// conversation engine in the chain and swallows the commands it owns.
type Admin struct {
	transport  bot.Transport
	controller *access.Controller
	cfg        *config.Config
}

func NewAdmin(transport bot.Transport, controller *access.Controller, cfg *config.Config) *Admin {
	return &Admin{
		transport:  transport,
		controller: controller,
		cfg:        cfg,
	}
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error) {
	if chat == nil || user == nil {
		return true, nil
	}

	switch {
	case
		u.Message == nil,
		user.IsBot,
		!chat.IsPrivate(),
		!u.Message.IsCommand():
		return true, nil
	}
	m := u.Message

	entry := a.getLogEntry()
	switch m.Command() {
	case "unban":
		entry.Trace("command:", m.Command())
		return false, a.handleUnban(ctx, m, chat, user)
	default:
		return true, nil
	}
}

func (a *Admin) handleUnban(ctx context.Context, m *api.Message, chat *api.Chat, user *api.User) error {
	target := strings.TrimSpace(m.CommandArguments())
	if target == "" {
		_, err := a.transport.SendText(ctx, chat.ID, 0, Text("unban_usage"), nil)
		return err
	}

	isAdmin, err := a.transport.IsChatAdmin(ctx, a.cfg.WhitelistGroupID, user.ID)
	if err != nil {
		a.getLogEntry().WithError(err).WithField("user_id", user.ID).Warn("cant verify admin role")
	}
	if !isAdmin {
		_, err := a.transport.SendText(ctx, chat.ID, 0, Text("no_permission"), nil)
		return err
	}

	targetID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		_, err := a.transport.SendText(ctx, chat.ID, 0, Text("unban_usage"), nil)
		return err
	}

	if err := a.controller.Unban(ctx, targetID); err != nil {
		a.getLogEntry().WithError(err).WithField("target_id", targetID).Error("cant unban user")
		_, sendErr := a.transport.SendText(ctx, chat.ID, 0, Text("try_later"), nil)
		return sendErr
	}

	_, err = a.transport.SendText(ctx, chat.ID, 0, Textf("unban_done", target), nil)
	return err
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("object", "Admin")
}
