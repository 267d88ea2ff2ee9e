package batch

import "go.uber.org/fx"

// Module provides the batch repository to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(Store))),
)
