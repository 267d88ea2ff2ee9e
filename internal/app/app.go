package app

import (
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/cache"
	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/database"
	"github.com/makerclub/printq/internal/logger"
	"github.com/makerclub/printq/internal/messaging"
	"github.com/makerclub/printq/internal/notifier"
	"github.com/makerclub/printq/internal/objectstore"
	"github.com/makerclub/printq/internal/observability"
	repositoryattachment "github.com/makerclub/printq/internal/repository/attachment"
	repositoryaudit "github.com/makerclub/printq/internal/repository/audit"
	repositorybatch "github.com/makerclub/printq/internal/repository/batch"
	repositoryclub "github.com/makerclub/printq/internal/repository/club"
	repositoryorder "github.com/makerclub/printq/internal/repository/order"
	repositorysequence "github.com/makerclub/printq/internal/repository/sequence"
	repositorysysconfig "github.com/makerclub/printq/internal/repository/sysconfig"
	repositoryuser "github.com/makerclub/printq/internal/repository/user"
	grpcserver "github.com/makerclub/printq/internal/server/grpc"
	httpserver "github.com/makerclub/printq/internal/server/http"
	serviceattachment "github.com/makerclub/printq/internal/service/attachment"
	serviceaudit "github.com/makerclub/printq/internal/service/audit"
	servicebatch "github.com/makerclub/printq/internal/service/batch"
	serviceidentifier "github.com/makerclub/printq/internal/service/identifier"
	serviceorder "github.com/makerclub/printq/internal/service/order"
	servicesysconfig "github.com/makerclub/printq/internal/service/sysconfig"
	transporthttp "github.com/makerclub/printq/internal/transport/http"
	"github.com/makerclub/printq/internal/worker"
	workerorder "github.com/makerclub/printq/internal/worker/order"
	workersweep "github.com/makerclub/printq/internal/worker/sweep"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	objectstore.Module,
	repositoryorder.Module,
	repositorybatch.Module,
	repositoryattachment.Module,
	repositoryaudit.Module,
	repositorysysconfig.Module,
	repositorysequence.Module,
	repositoryclub.Module,
	repositoryuser.Module,
	serviceaudit.Module,
	servicesysconfig.Module,
	serviceidentifier.Module,
	serviceorder.Module,
	servicebatch.Module,
	serviceattachment.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background processing: the order event consumer and
// the retention sweep scheduler.
var Worker = fx.Options(
	Core,
	notifier.Module,
	worker.Module,
	workerorder.Module,
	workersweep.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
