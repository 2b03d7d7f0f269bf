package controller

import (
	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/serverutils"
	"cellexis-assistant/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFeedbackController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type feedbackController struct {
	feedbackService service.IFeedbackService
}

func NewFeedbackController(feedbackService service.IFeedbackService) IFeedbackController {
	return &feedbackController{
		feedbackService: feedbackService,
	}
}

func (c *feedbackController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/feedback")
	h.Post("", c.Submit)

	// Listing is for operators, so it sits behind the same JWT gate as
	// bookmarks.
	h.Get("", serverutils.JwtMiddleware, c.List)
}

func (c *feedbackController) Submit(ctx *fiber.Ctx) error {
	var req dto.SubmitFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.feedbackService.Submit(ctx.Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feedback received", res))
}

func (c *feedbackController) List(ctx *fiber.Ctx) error {
	res, err := c.feedbackService.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feedback entries", res))
}
