package sse

import (
	"context"
	"encoding/json"

	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/plugin/hook"
	"go.uber.org/zap"
)

const hookName = "sse_publisher"

// RegisterHooks publishes every quest and profile event as JSON to the
// owning account's channel. Publish failures are logged and do not interrupt
// other hooks.
func RegisterHooks(hc *hook.HookCenter, ps cache.PubSub, logger *zap.Logger) {
	publish := func(ctx context.Context, ev *hook.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if err := ps.Publish(ctx, Channel(ev.AccountID), string(data)); err != nil {
			logger.Warn("publish quest event failed",
				zap.String("event", ev.Name),
				zap.Int64("account_id", ev.AccountID),
				zap.Error(err))
		}
		return nil
	}
	for _, name := range []string{hook.AfterQuestGenerate, hook.OnQuestComplete, hook.OnProfileSaved} {
		hc.Register(name, 100, hookName, publish)
	}
}
