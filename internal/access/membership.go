package access

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
)

// MembershipOracle classifies a user as currently inside the whitelist
// group or not. Unknown is never granted: any transport error or
// unrecognized status counts as not-a-member.
type MembershipOracle interface {
	IsMember(ctx context.Context, userID int64) bool
}

type chatMemberClient interface {
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
}

type whitelistOracle struct {
	bot     chatMemberClient
	groupID int64
	timeout time.Duration
	logger  *log.Entry
}

func NewMembershipOracle(bot chatMemberClient, groupID int64, timeout time.Duration) MembershipOracle {
	return &whitelistOracle{
		bot:     bot,
		groupID: groupID,
		timeout: timeout,
		logger:  log.WithField("object", "MembershipOracle"),
	}
}

func (o *whitelistOracle) IsMember(ctx context.Context, userID int64) bool {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	type lookup struct {
		member api.ChatMember
		err    error
	}
	ch := make(chan lookup, 1)
	go func() {
		member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
			ChatConfigWithUser: api.ChatConfigWithUser{
				UserID: userID,
				ChatConfig: api.ChatConfig{
					ChatID: o.groupID,
				},
			},
		})
		ch <- lookup{member: member, err: err}
	}()

	select {
	case <-ctx.Done():
		o.logger.WithField("user_id", userID).Warn("membership check timed out, treating as not a member")
		return false
	case res := <-ch:
		if res.err != nil {
			o.logger.WithField("user_id", userID).WithField("error", res.err.Error()).Warn("membership check failed, treating as not a member")
			return false
		}
		switch res.member.Status {
		case "member", "administrator", "creator":
			return true
		default:
			return false
		}
	}
}
