package bot

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ajmalps/trovebot/telegram"
)

const (
	membershipCacheSize = 2048
	membershipCacheTTL  = 5 * time.Minute
)

// gateDecision is the outcome of a force-subscription check.
type gateDecision int

const (
	gateAllow gateDecision = iota
	// gateWarn: the check itself failed and policy is warn-and-continue.
	gateWarn
	gateBlock
)

// membershipGate enforces force-subscription. Confirmed memberships are
// cached with a TTL so repeated events from active users do not hit the
// platform every time; negative and ambiguous results are never cached.
type membershipGate struct {
	api      *telegram.API
	channel  string
	optional bool
	cache    *expirable.LRU[int64, telegram.MembershipStatus]
}

func newMembershipGate(api *telegram.API, channel string, optional bool) *membershipGate {
	return &membershipGate{
		api:      api,
		channel:  channel,
		optional: optional,
		cache:    expirable.NewLRU[int64, telegram.MembershipStatus](membershipCacheSize, nil, membershipCacheTTL),
	}
}

// Check decides whether userID gets bot functionality. StatusUnknown is
// conservative "not confirmed"; the optional policy turns it into a
// warning instead of a block.
func (g *membershipGate) Check(ctx context.Context, userID int64) gateDecision {
	if g == nil || g.channel == "" {
		return gateAllow
	}
	if status, ok := g.cache.Get(userID); ok && status.Confirmed() {
		return gateAllow
	}

	status := g.api.GetMembershipStatus(ctx, g.channel, userID)
	if status.Confirmed() {
		g.cache.Add(userID, status)
		return gateAllow
	}
	if status == telegram.StatusUnknown && g.optional {
		return gateWarn
	}
	return gateBlock
}
