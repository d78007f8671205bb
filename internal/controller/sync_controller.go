package controller

import (
	"prf-forms-be/internal/pkg/serverutils"
	"prf-forms-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISyncController interface {
	RegisterRoutes(r fiber.Router)
	Save(ctx *fiber.Ctx) error
	Resync(ctx *fiber.Ctx) error
	ListRemote(ctx *fiber.Ctx) error
	ShowRemote(ctx *fiber.Ctx) error
}

type syncController struct {
	syncService service.ISyncService
}

func NewSyncController(syncService service.ISyncService) ISyncController {
	return &syncController{
		syncService: syncService,
	}
}

func (c *syncController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sync/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("resync", c.Resync)
	h.Get("remote", c.ListRemote)
	h.Get("remote/:id", c.ShowRemote)
	h.Post(":id/save", c.Save)
}

func (c *syncController) Save(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.syncService.Save(ctx.Context(), currentToken(ctx), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save report", res))
}

func (c *syncController) Resync(ctx *fiber.Ctx) error {
	res, err := c.syncService.Resync(ctx.Context(), currentToken(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success resync", res))
}

func (c *syncController) ListRemote(ctx *fiber.Ctx) error {
	res, err := c.syncService.ListRemote(ctx.Context(), currentToken(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list remote reports", res))
}

func (c *syncController) ShowRemote(ctx *fiber.Ctx) error {
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.syncService.ShowRemote(ctx.Context(), currentToken(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show remote report", res))
}
