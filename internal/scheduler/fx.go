package scheduler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		ProvideConfig,
		NewPublisher,
		New,
	),
	fx.Invoke(StartRelay),
)

// StartRelay runs the relay loop for the lifetime of the app. Stopping waits
// for the in-flight batch to finish or for the stop deadline.
func StartRelay(lc fx.Lifecycle, cfg Config, sched *Scheduler, log *zap.Logger) {
	if !cfg.Enabled {
		log.Info("claim event relay disabled")
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				sched.RunForever(runCtx)
			}()
			log.Info("claim event relay started",
				zap.Duration("interval", cfg.RunInterval),
				zap.String("stream", cfg.StreamKey),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}
