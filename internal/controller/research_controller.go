package controller

import (
	"context"

	"sales-research-be/internal/dto"
	"sales-research-be/internal/pkg/logger"
	"sales-research-be/internal/pkg/serverutils"
	"sales-research-be/internal/service"
	internalWS "sales-research-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IResearchController interface {
	RegisterRoutes(r fiber.Router)
	Run(ctx *fiber.Ctx) error
	Start(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type researchController struct {
	researchService service.IResearchService
	hub             *internalWS.Hub
	bridge          *internalWS.StreamBridge
	logger          logger.ILogger
}

func NewResearchController(
	researchService service.IResearchService,
	hub *internalWS.Hub,
	bridge *internalWS.StreamBridge,
	log logger.ILogger,
) IResearchController {
	return &researchController{
		researchService: researchService,
		hub:             hub,
		bridge:          bridge,
		logger:          log,
	}
}

func (c *researchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/research/v1")
	h.Get("stream/:runId", c.Stream) // websocket upgrade, no identity header
	h.Use(serverutils.IdentityMiddleware)
	h.Post("run", c.Run)
	h.Post("start", c.Start)
}

// Run executes research synchronously and returns the full result.
func (c *researchController) Run(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	var req dto.ResearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.researchService.Run(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Research completed", res))
}

// Start launches a background run; progress streams over the websocket.
func (c *researchController) Start(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	var req dto.ResearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.researchService.Start(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	if err := c.bridge.Pump(context.Background(), res.RunId); err != nil {
		c.logger.Error("ResearchController", "Failed to bridge run stream", map[string]interface{}{
			"run_id": res.RunId,
			"error":  err.Error(),
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Research started", res))
}

// Stream upgrades the connection and attaches it as a watcher of a run.
func (c *researchController) Stream(ctx *fiber.Ctx) error {
	runId := ctx.Params("runId")
	if runId == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing run id"))
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("ResearchController", "Starting stream session", map[string]interface{}{"run_id": runId})
			internalWS.ServeWs(c.hub, conn, runId)
			c.logger.Info("ResearchController", "Stream session ended", map[string]interface{}{"run_id": runId})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
