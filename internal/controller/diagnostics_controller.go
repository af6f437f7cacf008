package controller

import (
	"strconv"

	"sales-research-be/internal/pkg/logger"
	"sales-research-be/internal/pkg/serverutils"
	"sales-research-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDiagnosticsController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Rejections(ctx *fiber.Ctx) error
	Logs(ctx *fiber.Ctx) error
}

type diagnosticsController struct {
	diagnosticsService service.IDiagnosticsService
	sysLogger          logger.ILogger
}

func NewDiagnosticsController(diagnosticsService service.IDiagnosticsService, sysLogger logger.ILogger) IDiagnosticsController {
	return &diagnosticsController{
		diagnosticsService: diagnosticsService,
		sysLogger:          sysLogger,
	}
}

func (c *diagnosticsController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)

	h := r.Group("/diagnostics/v1")
	h.Use(serverutils.IdentityMiddleware)
	h.Get("rejections", c.Rejections)
	h.Get("logs", c.Logs)
}

func (c *diagnosticsController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.diagnosticsService.Health(ctx.Context()))
}

func (c *diagnosticsController) Rejections(ctx *fiber.Ctx) error {
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))

	records, err := c.diagnosticsService.RecentRejections(limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recent rejections", records))
}

func (c *diagnosticsController) Logs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit, _ := strconv.Atoi(ctx.Query("limit", "100"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))

	entries, err := c.sysLogger.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log entries", entries))
}
