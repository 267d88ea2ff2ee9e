package batch

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/dto"
	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/identity"
	"github.com/makerclub/printq/internal/presentation/http/response"
	batchsvc "github.com/makerclub/printq/internal/service/batch"
	"github.com/makerclub/printq/internal/transport/http/middleware"
	"github.com/makerclub/printq/pkg/errorbank"
)

// Handler exposes batch coordination over HTTP.
type Handler struct {
	batches *batchsvc.Service
}

// NewHandler constructs the batch handler.
func NewHandler(batches *batchsvc.Service) *Handler {
	return &Handler{batches: batches}
}

// Register mounts the batch routes.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/v1/batches", middleware.Principal())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/approve", h.approve)
	g.POST("/:id/start", h.start)
	g.POST("/:id/complete", h.complete)
}

func (h *Handler) create(c echo.Context) error {
	var req dto.CreateBatchRequest
	if err := c.Bind(&req); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid request body")).Build()
	}

	input := batchsvc.CreateInput{
		Name:     req.Name,
		OrderIDs: req.OrderIDs,
	}
	if req.EstimatedDurationMinutes != nil {
		d := time.Duration(*req.EstimatedDurationMinutes) * time.Minute
		input.EstimatedDuration = &d
	}

	b, err := h.batches.Create(c.Request().Context(), middleware.From(c), input)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithStatus(http.StatusCreated).WithData(dto.NewBatchResponse(b)).Build()
}

func (h *Handler) list(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.New(c).WithError(errorbank.BadRequest("invalid limit")).Build()
		}
		limit = n
	}
	batches, err := h.batches.List(c.Request().Context(), middleware.From(c), limit)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewBatchResponses(batches)).WithMeta("count", len(batches)).Build()
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	b, err := h.batches.Get(c.Request().Context(), middleware.From(c), id)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewBatchResponse(b)).Build()
}

func (h *Handler) approve(c echo.Context) error {
	return h.advance(c, h.batches.Approve)
}

func (h *Handler) start(c echo.Context) error {
	return h.advance(c, h.batches.Start)
}

func (h *Handler) complete(c echo.Context) error {
	return h.advance(c, h.batches.Complete)
}

type advanceFn func(ctx context.Context, principal identity.Principal, id int64) (*entity.Batch, error)

func (h *Handler) advance(c echo.Context, op advanceFn) error {
	id, err := pathID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	b, err := op(c.Request().Context(), middleware.From(c), id)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewBatchResponse(b)).Build()
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid batch id")
	}
	return id, nil
}

// Module registers the handler and mounts its routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) { h.Register(e) }),
)
