package attachment

import "go.uber.org/fx"

// Module provides the attachment manager to Fx.
var Module = fx.Provide(NewService)
