package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/gatebot/internal/db"
)

// ServiceBot defines bot-specific operations
type ServiceBot interface {
	GetBot() *api.BotAPI
}

// ServiceDB defines database-specific operations
type ServiceDB interface {
	GetDB() db.Client
}

// Service defines the core bot service interface
type Service interface {
	ServiceBot
	ServiceDB
}

// Handler defines the interface for all update handlers in the system
type Handler interface {
	Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error)
}

// Transport abstracts the outbound Telegram calls handlers perform, so the
// conversation flows can be exercised without a live bot connection.
type Transport interface {
	SendText(ctx context.Context, chatID int64, topicID int, text string, markup *api.InlineKeyboardMarkup) (messageID int, err error)
	SendPhoto(ctx context.Context, chatID int64, topicID int, fileID, caption string) error
	SendDocument(ctx context.Context, chatID int64, topicID int, fileID, caption string) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	PinMessage(ctx context.Context, chatID int64, messageID int) error
	IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}
