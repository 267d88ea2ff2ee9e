package sequence

import "go.uber.org/fx"

// Module provides the sequence repository to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(Store))),
)
