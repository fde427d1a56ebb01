package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/gatebot/internal/access"
	"github.com/iamwavecut/gatebot/internal/bot"
	"github.com/iamwavecut/gatebot/internal/config"
	"github.com/iamwavecut/gatebot/internal/db/sqlite"
	"github.com/iamwavecut/gatebot/internal/handlers"
	"github.com/iamwavecut/gatebot/internal/infra"
	"github.com/iamwavecut/gatebot/internal/lifecycle"
	"github.com/iamwavecut/gatebot/internal/limiter"
	"github.com/iamwavecut/gatebot/internal/observability"
	"github.com/iamwavecut/gatebot/internal/queue"
	"github.com/iamwavecut/gatebot/internal/session"
)

func main() {
	cfg := config.Get()
	log.SetFormatter(&config.GbFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
		log.WithError(err).Fatalln("cant initialize observability")
	}

	infra.GoRecoverable(-1, "process_updates", func() {
		defer cancel()

		botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			log.WithError(err).Errorln("cant initialize bot api")
			time.Sleep(1 * time.Second)
			log.Fatalln("exiting")
		}
		if log.Level(cfg.LogLevel) == log.TraceLevel {
			botAPI.Debug = true
		}
		defer botAPI.StopReceivingUpdates()

		client, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), "bot.db")
		if err != nil {
			log.WithError(err).Fatalln("cant initialize storage")
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Errorln("cant close storage")
			}
		}()

		service := bot.NewService(botAPI, client)
		transport := bot.NewTransport(botAPI)

		sessions := session.NewManager(0)
		dispatcher := queue.NewDispatcher()

		oracle := access.NewMembershipOracle(botAPI, cfg.WhitelistGroupID, cfg.Access.MembershipTimeout)
		attempts := limiter.New(cfg.Access.RateLimitWindow, cfg.Access.RateLimitMax)
		controller := access.NewController(service.GetDB(), oracle, attempts, cfg.Access.JoinCooldown)

		runtime := lifecycle.NewRuntime(sessions, dispatcher)
		if err := runtime.Start(ctx); err != nil {
			log.WithError(err).Fatalln("cant start components")
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := runtime.Stop(stopCtx); err != nil {
				log.WithError(err).Errorln("cant stop components")
			}
		}()

		updateProcessor := bot.NewUpdateProcessor(
			service,
			dispatcher,
			handlers.NewAdmin(transport, controller, &cfg),
			handlers.NewConversation(transport, service.GetDB(), controller, sessions, &cfg),
		)

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case err := <-errorChan:
					return err
				case update := <-updateChan:
					if err := updateProcessor.Process(gctx, &update); err != nil {
						log.WithError(err).Errorln("cant process update")
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
		if err := g.Wait(); err != nil {
			log.WithError(err).Errorln("no more updates")
		}
	})

	select {
	case _, ok := <-infra.MonitorExecutable(ctx):
		if ok {
			log.Errorln("executable file was modified")
		}
	case <-ctx.Done():
	}
	os.Exit(0)
}
