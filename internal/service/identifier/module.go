package identifier

import "go.uber.org/fx"

// Module provides the identifier generator to Fx.
var Module = fx.Provide(NewGenerator)
