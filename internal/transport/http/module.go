package http

import (
	"go.uber.org/fx"

	attachmenthttp "github.com/makerclub/printq/internal/transport/http/attachment"
	audithttp "github.com/makerclub/printq/internal/transport/http/audit"
	batchhttp "github.com/makerclub/printq/internal/transport/http/batch"
	orderhttp "github.com/makerclub/printq/internal/transport/http/order"
	sysconfighttp "github.com/makerclub/printq/internal/transport/http/sysconfig"
)

// Module mounts every HTTP handler group.
var Module = fx.Options(
	orderhttp.Module,
	batchhttp.Module,
	attachmenthttp.Module,
	audithttp.Module,
	sysconfighttp.Module,
)
