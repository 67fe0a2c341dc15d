package mirrors

import (
	"errors"
	"fmt"

	"github.com/backgitup/backgitup/internal/mirrors"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	mirrorsSvc *mirrors.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(mirrorsSvc *mirrors.Service, validator *validator.Validate, logger *zap.Logger) handler.Handler {
	return &Handler{
		mirrorsSvc: mirrorsSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/mirrors")

	r.Use(h.errorsHandler)
	r.Get("/", h.list)
	r.Get("/:owner/:name", h.get)
}

// List mirrors, optionally filtered by the outcome of their last pass.
func (h *Handler) list(c *fiber.Ctx) error {
	query := new(ListQuery)
	if err := c.QueryParser(query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.validator.Struct(query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	records, err := h.mirrorsSvc.List(c.Context(), mirrors.Outcome(query.Outcome))
	if err != nil {
		return fmt.Errorf("failed to list mirrors: %w", err)
	}

	return c.JSON(lo.Map(records, func(record mirrors.MirrorRecord, _ int) MirrorResponse {
		return h.toResponse(&record)
	}))
}

func (h *Handler) get(c *fiber.Ctx) error {
	record, err := h.mirrorsSvc.Get(c.Context(), c.Params("owner"), c.Params("name"))
	if err != nil {
		return fmt.Errorf("failed to get mirror: %w", err)
	}

	return c.JSON(h.toResponse(record))
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, mirrors.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func (h *Handler) toResponse(record *mirrors.MirrorRecord) MirrorResponse {
	return MirrorResponse{
		Owner:    record.Owner,
		Name:     record.Name,
		CloneURL: record.CloneURL,
		Path:     record.Path,

		LastOutcome:         string(record.LastOutcome),
		LastReason:          record.LastReason,
		Head:                record.Head,
		LastAttemptAt:       record.LastAttemptAt,
		LastSuccessAt:       record.LastSuccessAt,
		ConsecutiveFailures: record.ConsecutiveFailures,

		UpdatedAt: record.UpdatedAt,
	}
}
