package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		TelegramAPIToken string `env:"TOKEN,required"`
		WhitelistGroupID int64  `env:"WHITELIST_GROUP_ID,required"`
		TargetGroupID    int64  `env:"TARGET_GROUP_ID,required"`
		LogLevel         int    `env:"LOG_LEVEL,default=2"`
		DotPath          string `env:"DOT_PATH,default=~/.gatebot"`
		MetricsAddr      string `env:"METRICS_ADDR,default=:2112"`
		Topics           Topics
		Access           Access
	}

	// Topics are the moderation-forum message IDs that relayed content
	// replies to inside the target group.
	Topics struct {
		Media        int `env:"TOPIC_MEDIA,default=22"`
		JoinRequests int `env:"TOPIC_JOIN,default=121"`
		Selections   int `env:"TOPIC_SELECTIONS,default=124"`
		Tickets      int `env:"TOPIC_TICKETS,default=146"`
		Alerts       int `env:"TOPIC_ALERTS,default=149"`
	}

	Access struct {
		JoinCooldown      time.Duration `env:"JOIN_COOLDOWN,default=6h"`
		RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW,default=1h"`
		RateLimitMax      int           `env:"RATE_LIMIT_MAX,default=5"`
		MembershipTimeout time.Duration `env:"MEMBERSHIP_TIMEOUT,default=10s"`
		StoreTimeout      time.Duration `env:"STORE_TIMEOUT,default=5s"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("GB_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		dotPath, err := homedir.Expand(cfg.DotPath)
		if err != nil {
			globalErr = fmt.Errorf("expand dot path: %w", err)
			return
		}
		cfg.DotPath = dotPath
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
