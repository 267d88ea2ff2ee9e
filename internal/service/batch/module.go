package batch

import "go.uber.org/fx"

// Module provides the batch coordinator to Fx.
var Module = fx.Provide(NewService)
