package discord

import (
	"github.com/mintgate/goapi/base/ctx"
)

// Notifier pushes gating lifecycle updates to a discord channel.
// All sends are best effort, callers should not fail operations on
// notification errors.
type Notifier interface {
	NotifyRuleCreated(c ctx.Ctx, ruleId, creator, contentType string, requiredCollections []string)
	NotifyAccessChanged(c ctx.Ctx, ruleId, user string, granted bool)
}
