package bot

import (
	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/gatebot/internal/db"
)

type service struct {
	bot *api.BotAPI
	db  db.Client
}

func NewService(bot *api.BotAPI, db db.Client) *service {
	return &service{
		bot: bot,
		db:  db,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}
