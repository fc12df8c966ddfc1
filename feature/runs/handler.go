package runs

import (
	"errors"
	"strconv"

	"locafix/core/logger"
	"locafix/feature/dispatch"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the run routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/runs")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleStartReconcile)
	group.Post("/convert", h.HandleStartConvert)
	group.Get("/:id", h.HandleGet)
	group.Delete("/:id", h.HandleCancel)
}

// HandleStartReconcile starts a reconcile run.
// @Summary Start Reconcile Run
// @Description Reconciles the original and modified catalogs, deletes reverted nodes from the modified catalog and patches references under dir. Set dry_run to only analyze, or confirmed to apply.
// @Tags runs
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "Reconcile request"
// @Success 202 {object} Snapshot "Run accepted"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Directory locked by another run"
// @Router /runs [post]
func (h *Handler) HandleStartReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req ReconcileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	run, err := h.service.StartReconcile(req)
	if err != nil {
		l.Warn("Reconcile run rejected", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Reconcile run started", zap.String("run_id", run.ID))
	return c.Status(fiber.StatusAccepted).JSON(run.Snapshot())
}

// HandleStartConvert starts a conversion run.
// @Summary Start Conversion Run
// @Description Converts every lsx file to lsj (or the reverse) under dir using the external conversion tool.
// @Tags runs
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body ConvertRequest true "Conversion request"
// @Success 202 {object} Snapshot "Run accepted"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Directory locked by another run"
// @Router /runs/convert [post]
func (h *Handler) HandleStartConvert(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req ConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	run, err := h.service.StartConvert(req)
	if err != nil {
		l.Warn("Conversion run rejected", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Conversion run started", zap.String("run_id", run.ID))
	return c.Status(fiber.StatusAccepted).JSON(run.Snapshot())
}

// HandleGet returns a run snapshot.
// @Summary Get Run
// @Description Returns the state, progress, recent messages and result of a run. Runs no longer tracked by the server are read from the journal.
// @Tags runs
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Snapshot
// @Failure 404 {object} map[string]string "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id := c.Params("id")
	run, err := h.service.Get(id)
	if err == nil {
		return c.JSON(run.Snapshot())
	}
	if !errors.Is(err, ErrRunNotFound) {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	rec, err := h.service.Journaled(c.UserContext(), id)
	if err != nil {
		if !errors.Is(err, ErrRunNotFound) {
			logger.WithRayID(h.service.logger, c).Error("Failed to read run journal", zap.String("id", id), zap.Error(err))
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rec)
}

// HandleCancel cancels a run.
// @Summary Cancel Run
// @Description Requests cooperative cancellation. Files already being processed are finished.
// @Tags runs
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Run ID"
// @Success 202 {object} Snapshot
// @Failure 404 {object} map[string]string "Run not found"
// @Router /runs/{id} [delete]
func (h *Handler) HandleCancel(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.Cancel(c.Params("id"))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Run cancellation requested", zap.String("run_id", run.ID))
	return c.Status(fiber.StatusAccepted).JSON(run.Snapshot())
}

// HandleList returns recent runs.
// @Summary List Runs
// @Description Lists recent runs from the history journal, newest first.
// @Tags runs
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} history.Record
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /runs [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
	}

	records, err := h.service.Recent(c.Context(), limit)
	if err != nil {
		l.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}

func statusFor(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrNotConfirmed):
		return fiber.StatusBadRequest
	case errors.Is(err, dispatch.ErrRunLocked):
		return fiber.StatusConflict
	case errors.Is(err, ErrRunNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
