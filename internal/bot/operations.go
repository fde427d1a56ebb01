package bot

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	apperrors "github.com/iamwavecut/gatebot/internal/errors"
)

// transport wraps *api.BotAPI with the Transport surface. A positive topicID
// threads the message into that forum topic by replying to its root message.
type transport struct {
	bot *api.BotAPI
}

func NewTransport(bot *api.BotAPI) Transport {
	return &transport{bot: bot}
}

func (t *transport) SendText(ctx context.Context, chatID int64, topicID int, text string, markup *api.InlineKeyboardMarkup) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	msg := api.NewMessage(chatID, text)
	if topicID > 0 {
		msg.ReplyParameters.MessageID = topicID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, errors.WithMessage(err, "cant send message")
	}
	return sent.MessageID, nil
}

func (t *transport) SendPhoto(ctx context.Context, chatID int64, topicID int, fileID, caption string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	photo := api.NewPhoto(chatID, api.FileID(fileID))
	photo.Caption = caption
	if topicID > 0 {
		photo.ReplyParameters.MessageID = topicID
	}
	if _, err := t.bot.Send(photo); err != nil {
		return errors.WithMessage(err, "cant send photo")
	}
	return nil
}

func (t *transport) SendDocument(ctx context.Context, chatID int64, topicID int, fileID, caption string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	doc := api.NewDocument(chatID, api.FileID(fileID))
	doc.Caption = caption
	if topicID > 0 {
		doc.ReplyParameters.MessageID = topicID
	}
	if _, err := t.bot.Send(doc); err != nil {
		return errors.WithMessage(err, "cant send document")
	}
	return nil
}

func (t *transport) EditText(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	edit := api.NewEditMessageText(chatID, messageID, text)
	if markup != nil {
		edit.ReplyMarkup = markup
	}
	if _, err := t.bot.Send(edit); err != nil {
		return errors.WithMessage(err, "cant edit message")
	}
	return nil
}

func (t *transport) AnswerCallback(ctx context.Context, callbackID, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if _, err := t.bot.Request(api.NewCallback(callbackID, text)); err != nil {
		return errors.WithMessage(err, "cant answer callback")
	}
	return nil
}

func (t *transport) PinMessage(ctx context.Context, chatID int64, messageID int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if _, err := t.bot.Request(api.PinChatMessageConfig{
		BaseChatMessage: api.BaseChatMessage{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			MessageID: messageID,
		},
	}); err != nil {
		return errors.WithMessage(err, "cant pin message")
	}
	return nil
}

func (t *transport) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	member, err := t.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			UserID: userID,
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
		},
	})
	if err != nil {
		return false, membershipFailure("chat member lookup", err)
	}
	return member.IsCreator() || member.IsAdministrator(), nil
}

func membershipFailure(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, apperrors.ErrMembershipCheckFailed)
}

func GetUN(user *api.User) string {
	if user == nil {
		return ""
	}
	userName := user.UserName
	if len(userName) == 0 {
		userName = user.FirstName + " " + user.LastName
		userName = strings.TrimSpace(userName)
	}
	return userName
}

func GetFullName(user *api.User) string {
	if user == nil {
		return ""
	}
	fullName := user.FirstName + " " + user.LastName
	fullName = strings.TrimSpace(fullName)
	if len(fullName) == 0 {
		fullName = user.UserName
	}
	return fullName
}
