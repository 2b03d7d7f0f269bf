package controller

import (
	"cellexis-assistant/internal/dto"
	"cellexis-assistant/internal/pkg/serverutils"
	"cellexis-assistant/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBookmarkController interface {
	RegisterRoutes(r fiber.Router)
	Save(ctx *fiber.Ctx) error
	Load(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type bookmarkController struct {
	bookmarkService service.IBookmarkService
}

func NewBookmarkController(bookmarkService service.IBookmarkService) IBookmarkController {
	return &bookmarkController{
		bookmarkService: bookmarkService,
	}
}

func (c *bookmarkController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/bookmarks")
	h.Use(serverutils.JwtMiddleware)
	h.Put(":collection", c.Save)
	h.Get(":collection", c.Load)
	h.Delete(":collection", c.Clear)
}

func (c *bookmarkController) Save(ctx *fiber.Ctx) error {
	userID := ctx.Locals("user_id").(string)

	var req dto.SaveBookmarksRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Collection = ctx.Params("collection")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.bookmarkService.Save(ctx.Context(), userID, req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Bookmarks saved", nil))
}

func (c *bookmarkController) Load(ctx *fiber.Ctx) error {
	userID := ctx.Locals("user_id").(string)

	res, err := c.bookmarkService.Load(ctx.Context(), userID, ctx.Params("collection"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Bookmarks loaded", res))
}

func (c *bookmarkController) Clear(ctx *fiber.Ctx) error {
	userID := ctx.Locals("user_id").(string)

	if err := c.bookmarkService.Clear(ctx.Context(), userID, ctx.Params("collection")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Bookmarks cleared", nil))
}
