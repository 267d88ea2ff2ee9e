package audit

import "go.uber.org/fx"

// Module provides the audit repository to Fx.
var Module = fx.Provide(
	fx.Annotate(NewRepository, fx.As(new(Store))),
)
