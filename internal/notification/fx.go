package notification

import "go.uber.org/fx"

var Module = fx.Module("notification",
	fx.Provide(
		fx.Annotate(NewOutbox, fx.As(fx.Self()), fx.As(new(Notifier))),
	),
)
