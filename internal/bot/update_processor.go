package bot

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/iamwavecut/gatebot/internal/observability"
	"github.com/iamwavecut/gatebot/internal/queue"
)

const (
	UpdateTimeout = 5 * time.Minute
)

// UpdateProcessor fans updates out to per-chat lanes, so each chat's
// updates run strictly in order while separate chats proceed concurrently.
type UpdateProcessor struct {
	s              Service
	dispatcher     *queue.Dispatcher
	updateHandlers []Handler
}

func NewUpdateProcessor(s Service, dispatcher *queue.Dispatcher, handlers ...Handler) *UpdateProcessor {
	return &UpdateProcessor{
		s:              s,
		dispatcher:     dispatcher,
		updateHandlers: handlers,
	}
}

func (up *UpdateProcessor) Process(ctx context.Context, u *api.Update) error {
	if u == nil {
		return errors.New("update is nil")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var updateTime time.Time
	switch {
	case u.Message != nil:
		updateTime = time.Unix(int64(u.Message.Date), 0)
	case u.EditedMessage != nil:
		updateTime = time.Unix(int64(u.EditedMessage.Date), 0)
	default:
		updateTime = time.Now()
	}

	if time.Since(updateTime) > UpdateTimeout {
		log.WithFields(log.Fields{
			"update_time": updateTime,
			"age":         time.Since(updateTime),
		}).Debug("Skipping outdated update")
		return nil
	}

	chat := u.FromChat()
	user := u.SentFrom()
	if chat == nil || user == nil {
		log.Trace("update without chat or user, skipping")
		return nil
	}

	up.dispatcher.Dispatch(chat.ID, func() {
		up.runHandlers(ctx, u, chat, user)
	})
	return nil
}

func (up *UpdateProcessor) runHandlers(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) {
	ctx, span := otel.Tracer("update-processor").Start(ctx, "run-handlers")
	defer span.End()

	done := observability.StartUpdateProcessing()
	defer done("completed")

	observability.Logger.Debug("processing update",
		zap.Int64("chat_id", chat.ID),
		zap.Int64("user_id", user.ID),
	)

	for _, handler := range up.updateHandlers {
		if handler == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		proceed, err := handler.Handle(ctx, u, chat, user)
		if err != nil {
			log.WithFields(log.Fields{
				"chat_id": chat.ID,
				"user_id": user.ID,
			}).WithError(err).Error("handling error")
			return
		}
		if !proceed {
			log.Trace("not proceeding")
			return
		}
	}
}

func GetUpdatesChans(ctx context.Context, bot *api.BotAPI, config api.UpdateConfig) (api.UpdatesChannel, chan error) {
	ch := make(chan api.Update, bot.Buffer)
	chErr := make(chan error)

	go func() {
		defer close(ch)
		defer close(chErr)
		for {
			select {
			case <-ctx.Done():
				chErr <- ctx.Err()
				return
			default:
				updates, err := bot.GetUpdates(config)
				if err != nil {
					chErr <- err
					return
				}

				for _, update := range updates {
					if update.UpdateID >= config.Offset {
						config.Offset = update.UpdateID + 1
						select {
						case ch <- update:
						case <-ctx.Done():
							chErr <- ctx.Err()
							return
						}
					}
				}
			}
		}
	}()

	return ch, chErr
}
