package sysconfig

import "go.uber.org/fx"

// Module provides the system-config repository to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(Store))),
)
