package sysconfig

import "go.uber.org/fx"

// Module provides the system-config service to Fx.
var Module = fx.Provide(NewService)
