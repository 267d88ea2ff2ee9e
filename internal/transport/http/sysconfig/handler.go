package sysconfig

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/dto"
	"github.com/makerclub/printq/internal/presentation/http/response"
	configsvc "github.com/makerclub/printq/internal/service/sysconfig"
	"github.com/makerclub/printq/internal/transport/http/middleware"
	"github.com/makerclub/printq/pkg/errorbank"
)

// Handler exposes system configuration over HTTP.
type Handler struct {
	settings *configsvc.Service
}

// NewHandler constructs the configuration handler.
func NewHandler(settings *configsvc.Service) *Handler {
	return &Handler{settings: settings}
}

// Register mounts the configuration routes.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/v1/config", middleware.Principal())
	g.GET("", h.list)
	g.GET("/:key", h.get)
	g.PUT("/:key", h.set)
}

func (h *Handler) list(c echo.Context) error {
	principal := middleware.From(c)
	if !principal.Staff() {
		return response.New(c).WithError(errorbank.PermissionDenied("only staff can read system configuration")).Build()
	}
	entries, err := h.settings.GetAll(c.Request().Context())
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	out := make([]dto.ConfigResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ConfigResponse{Key: e.Key, Value: e.Value})
	}
	return response.New(c).WithData(out).Build()
}

func (h *Handler) get(c echo.Context) error {
	principal := middleware.From(c)
	if !principal.Staff() {
		return response.New(c).WithError(errorbank.PermissionDenied("only staff can read system configuration")).Build()
	}
	key := c.Param("key")
	value, err := h.settings.Get(c.Request().Context(), key)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.ConfigResponse{Key: key, Value: value}).Build()
}

func (h *Handler) set(c echo.Context) error {
	var req dto.SetConfigRequest
	if err := c.Bind(&req); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid request body")).Build()
	}
	key := c.Param("key")
	if err := h.settings.Set(c.Request().Context(), middleware.From(c), key, req.Value, req.Description); err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.ConfigResponse{Key: key, Value: req.Value}).Build()
}

// Module registers the handler and mounts its routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) { h.Register(e) }),
)
