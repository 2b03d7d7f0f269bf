package controller

import (
	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/serverutils"
	"cellexis-assistant/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVoiceController interface {
	RegisterRoutes(r fiber.Router)
	Transcript(ctx *fiber.Ctx) error
	Activate(ctx *fiber.Ctx) error
	Deactivate(ctx *fiber.Ctx) error
	Toggle(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
}

type voiceController struct {
	voiceService service.IVoiceService
}

func NewVoiceController(voiceService service.IVoiceService) IVoiceController {
	return &voiceController{
		voiceService: voiceService,
	}
}

func (c *voiceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/voice")
	h.Post("/transcript", c.Transcript)
	h.Post("/activate", c.Activate)
	h.Post("/deactivate", c.Deactivate)
	h.Post("/toggle", c.Toggle)
	h.Get("/state", c.State)
}

func (c *voiceController) Transcript(ctx *fiber.Ctx) error {
	var req dto.TranscriptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if !c.voiceService.PushTranscript(req.Transcript, req.Final) {
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, "no active voice session"))
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Transcript accepted", nil))
}

func (c *voiceController) Activate(ctx *fiber.Ctx) error {
	if err := c.voiceService.Activate(); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Voice session state", c.voiceService.State()))
}

func (c *voiceController) Deactivate(ctx *fiber.Ctx) error {
	c.voiceService.Deactivate()
	return ctx.JSON(serverutils.SuccessResponse("Voice session state", c.voiceService.State()))
}

func (c *voiceController) Toggle(ctx *fiber.Ctx) error {
	c.voiceService.Toggle()
	return ctx.JSON(serverutils.SuccessResponse("Voice session state", c.voiceService.State()))
}

func (c *voiceController) State(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Voice session state", c.voiceService.State()))
}
