package club

import "go.uber.org/fx"

// Module provides the club repository to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(Store))),
)
