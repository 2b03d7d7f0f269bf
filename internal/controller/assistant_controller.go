package controller

import (
	"errors"

	"cellexis-assistant/internal/config"
	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/serverutils"
	"cellexis-assistant/internal/service"
	"cellexis-assistant/pkg/gateway"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	Graph(ctx *fiber.Ctx) error
	SearchNodes(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	VoiceQuery(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	features         config.FeatureFlags
}

func NewAssistantController(assistantService service.IAssistantService, features config.FeatureFlags) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		features:         features,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant")
	h.Post("/search", c.Search)
	h.Get("/stats", c.Stats)
	h.Get("/health", c.Health)
	h.Post("/voice-query", c.VoiceQuery)

	if c.features.GraphVisualization {
		h.Get("/graph", c.Graph)
	}
	if c.features.AdvancedSearch {
		h.Get("/nodes", c.SearchNodes)
	}
}

func (c *assistantController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.Search(ctx.Context(), req)
	if err != nil {
		return mapGatewayError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Search completed", res))
}

func (c *assistantController) Graph(ctx *fiber.Ctx) error {
	filterType := ctx.Query("filter_type", "")
	query := ctx.Query("query", "")

	res, err := c.assistantService.Graph(ctx.Context(), filterType, query)
	if err != nil {
		return mapGatewayError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Graph loaded", res))
}

func (c *assistantController) SearchNodes(ctx *fiber.Ctx) error {
	q := ctx.Query("q", "")
	if q == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "q parameter is required"))
	}

	res, err := c.assistantService.SearchNodes(ctx.Context(), q)
	if err != nil {
		return mapGatewayError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Node search completed", res))
}

func (c *assistantController) Stats(ctx *fiber.Ctx) error {
	res := c.assistantService.Stats(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Stats loaded", res))
}

func (c *assistantController) Health(ctx *fiber.Ctx) error {
	res := c.assistantService.Health(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Health checked", res))
}

// VoiceQuery answers a spoken question. It never fails: backend errors come
// back as a spoken apology with status 200.
func (c *assistantController) VoiceQuery(ctx *fiber.Ctx) error {
	var req dto.VoiceQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	answer := c.assistantService.ProcessVoiceQuery(ctx.Context(), req.Query)
	return ctx.JSON(serverutils.SuccessResponse("Voice query answered", dto.VoiceQueryResponse{
		Query:  req.Query,
		Answer: answer,
	}))
}

// mapGatewayError translates backend failures into client-facing statuses:
// a sleeping backend is 503 with a retry hint, an upstream HTTP failure is
// 502, a network failure is 504.
func mapGatewayError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, gateway.ErrServiceSleeping) {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	}

	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, err.Error()))
	}

	var transportErr *gateway.TransportError
	if errors.As(err, &transportErr) {
		return ctx.Status(fiber.StatusGatewayTimeout).JSON(serverutils.ErrorResponse(504, err.Error()))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
}
