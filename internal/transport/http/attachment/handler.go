package attachment

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/dto"
	"github.com/makerclub/printq/internal/presentation/http/response"
	attachmentsvc "github.com/makerclub/printq/internal/service/attachment"
	"github.com/makerclub/printq/internal/transport/http/middleware"
	"github.com/makerclub/printq/pkg/errorbank"
)

// Handler exposes file upload, download and removal over HTTP.
type Handler struct {
	attachments *attachmentsvc.Service
}

// NewHandler constructs the attachment handler.
func NewHandler(attachments *attachmentsvc.Service) *Handler {
	return &Handler{attachments: attachments}
}

// Register mounts the file routes.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/v1/files", middleware.Principal())
	g.POST("", h.upload)
	g.GET("/:id", h.get)
	g.GET("/:id/content", h.download)
	g.DELETE("/:id", h.delete)

	orders := e.Group("/api/v1/orders", middleware.Principal())
	orders.GET("/:id/files", h.listByOrder)
}

// upload accepts a multipart form with a "file" part and an optional
// "order_id" field linking it to an existing order.
func (h *Handler) upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.New(c).WithError(errorbank.BadRequest("multipart field \"file\" is required")).Build()
	}
	src, err := fileHeader.Open()
	if err != nil {
		return response.New(c).WithError(errorbank.Internal("failed to read upload", errorbank.WithCause(err))).Build()
	}
	defer src.Close()

	input := attachmentsvc.UploadInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        src,
	}
	if raw := c.FormValue("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return response.New(c).WithError(errorbank.BadRequest("invalid order_id")).Build()
		}
		input.OrderID = &id
	}

	meta, err := h.attachments.Upload(c.Request().Context(), middleware.From(c), input)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithStatus(http.StatusCreated).WithData(dto.NewFileResponse(meta)).Build()
}

func (h *Handler) get(c echo.Context) error {
	meta, err := h.attachments.GetMetadata(c.Request().Context(), middleware.From(c), c.Param("id"))
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewFileResponse(meta)).Build()
}

func (h *Handler) download(c echo.Context) error {
	body, meta, err := h.attachments.Download(c.Request().Context(), middleware.From(c), c.Param("id"))
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	defer body.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+meta.FileName+"\"")
	return c.Stream(http.StatusOK, contentType, body)
}

func (h *Handler) delete(c echo.Context) error {
	if err := h.attachments.Delete(c.Request().Context(), middleware.From(c), c.Param("id")); err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) listByOrder(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		return response.New(c).WithError(errorbank.BadRequest("invalid order id")).Build()
	}
	files, err := h.attachments.ListByOrder(c.Request().Context(), middleware.From(c), orderID)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(dto.NewFileResponses(files)).WithMeta("count", len(files)).Build()
}

// Module registers the handler and mounts its routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) { h.Register(e) }),
)
