package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/dto"
	"github.com/makerclub/printq/internal/entity"
	"github.com/makerclub/printq/internal/presentation/http/response"
	orderrepo "github.com/makerclub/printq/internal/repository/order"
	ordersvc "github.com/makerclub/printq/internal/service/order"
	"github.com/makerclub/printq/internal/transport/http/middleware"
	"github.com/makerclub/printq/pkg/errorbank"
)

// Handler exposes the order lifecycle over HTTP.
type Handler struct {
	orders *ordersvc.Service
}

// NewHandler constructs the order handler.
func NewHandler(orders *ordersvc.Service) *Handler {
	return &Handler{orders: orders}
}

// Register mounts the order routes.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/v1/orders", middleware.Principal())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/by-number/:orderID", h.getByNumber)
	g.PATCH("/:id", h.update)
	g.POST("/:id/transition", h.transition)
}

func (h *Handler) create(c echo.Context) error {
	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid request body")).Build()
	}

	order, err := h.orders.Create(c.Request().Context(), middleware.From(c), ordersvc.CreateInput{
		ClubID:            req.ClubID,
		ProjectName:       req.ProjectName,
		EventDeadline:     req.EventDeadline,
		Material:          req.Material,
		Color:             req.Color,
		ProvidingFilament: req.ProvidingFilament,
		Instructions:      req.Instructions,
		FileIDs:           req.FileIDs,
	})
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	filter := orderrepo.Filter{}
	if raw := c.QueryParam("status"); raw != "" {
		status := entity.OrderStatus(raw)
		if !status.Valid() {
			return response.New(c).WithError(errorbank.BadRequest("unknown status filter")).Build()
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("club_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("invalid club_id")).Build()
		}
		filter.ClubID = &id
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("invalid user_id")).Build()
		}
		filter.UserID = &id
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return response.New(c).WithError(errorbank.BadRequest("invalid limit")).Build()
		}
		filter.Limit = limit
	}

	orders, err := h.orders.List(c.Request().Context(), middleware.From(c), filter)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	order, err := h.orders.Get(c.Request().Context(), middleware.From(c), id)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) getByNumber(c echo.Context) error {
	order, err := h.orders.GetByOrderID(c.Request().Context(), middleware.From(c), c.Param("orderID"))
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	var req dto.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid request body")).Build()
	}

	order, err := h.orders.Update(c.Request().Context(), middleware.From(c), id, ordersvc.UpdateInput{
		ProjectName:             req.ProjectName,
		EventDeadline:           req.EventDeadline,
		Material:                req.Material,
		Color:                   req.Color,
		Instructions:            req.Instructions,
		StaffNotes:              req.StaffNotes,
		EstimatedCompletionTime: req.EstimatedCompletionTime,
	})
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) transition(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	var req dto.TransitionOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid request body")).Build()
	}

	order, err := h.orders.Transition(c.Request().Context(), middleware.From(c), id, entity.OrderStatus(req.Status), req.Reason)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewOrderResponse(order)).Build()
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid order id")
	}
	return id, nil
}

// Module registers the handler and mounts its routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) { h.Register(e) }),
)
