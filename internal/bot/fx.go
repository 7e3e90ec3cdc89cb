package bot

import (
	"context"

	"go.uber.org/fx"

	"clubbot/internal/telegram"
)

var Module = fx.Module("bot",
	fx.Provide(
		func(c *telegram.Client) Transport { return c },
		New,
	),
	fx.Invoke(run),
)

// run starts long polling on application start and drains the workers on stop.
func run(lc fx.Lifecycle, b *Bot, client *telegram.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			updates := client.Updates()
			go func() {
				defer close(done)
				b.Run(ctx, updates)
			}()
			b.log.Info("bot started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			client.Stop()
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
