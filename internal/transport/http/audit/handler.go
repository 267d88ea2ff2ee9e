package audit

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/dto"
	"github.com/makerclub/printq/internal/presentation/http/response"
	auditrepo "github.com/makerclub/printq/internal/repository/audit"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	"github.com/makerclub/printq/internal/transport/http/middleware"
	"github.com/makerclub/printq/pkg/errorbank"
)

// Handler exposes read access to the audit trail.
type Handler struct {
	audit *auditsvc.Service
}

// NewHandler constructs the audit handler.
func NewHandler(audit *auditsvc.Service) *Handler {
	return &Handler{audit: audit}
}

// Register mounts the audit routes.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/v1/audit-logs", middleware.Principal())
	g.GET("", h.query)
}

func (h *Handler) query(c echo.Context) error {
	principal := middleware.From(c)
	if !principal.CanQueryAudit() {
		return response.New(c).WithError(errorbank.PermissionDenied("only staff can read the audit trail")).Build()
	}

	filter := auditrepo.Filter{
		EntityType: c.QueryParam("entity_type"),
		EntityID:   c.QueryParam("entity_id"),
		Action:     c.QueryParam("action"),
	}
	if raw := c.QueryParam("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("invalid actor_id")).Build()
		}
		filter.ActorID = &id
	}
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("from must be RFC 3339")).Build()
		}
		filter.From = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("to must be RFC 3339")).Build()
		}
		filter.To = &t
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.New(c).WithError(errorbank.BadRequest("invalid limit")).Build()
		}
		limit = n
	}

	logs, err := h.audit.Query(c.Request().Context(), filter, limit)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewAuditLogResponses(logs)).WithMeta("count", len(logs)).Build()
}

// Module registers the handler and mounts its routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) { h.Register(e) }),
)
