package controller

import (
	"prf-forms-be/internal/dto"
	"prf-forms-be/internal/pkg/serverutils"
	"prf-forms-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITemplateController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type templateController struct {
	templateService service.ITemplateService
}

func NewTemplateController(templateService service.ITemplateService) ITemplateController {
	return &templateController{
		templateService: templateService,
	}
}

func (c *templateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/template/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
}

func (c *templateController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateTemplateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.templateService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create template", res))
}

func (c *templateController) List(ctx *fiber.Ctx) error {
	res, err := c.templateService.GetAll(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list templates", res))
}

func (c *templateController) Show(ctx *fiber.Ctx) error {
	res, err := c.templateService.Show(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show template", res))
}
