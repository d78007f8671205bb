package controller

import (
	"prf-forms-be/internal/dto"
	"prf-forms-be/internal/pkg/serverutils"
	"prf-forms-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	WriteSection(ctx *fiber.Ctx) error
	NextSection(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	Migrate(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	SaveNote(ctx *fiber.Ctx) error
	ShowNote(ctx *fiber.Ctx) error
	DeleteNote(ctx *fiber.Ctx) error
}

type reportController struct {
	reportService service.IReportService
}

func NewReportController(reportService service.IReportService) IReportController {
	return &reportController{
		reportService: reportService,
	}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id/section/:key", c.WriteSection)
	h.Get(":id/next/:key", c.NextSection)
	h.Get(":id/progress", c.Progress)
	h.Post(":id/submit", c.Submit)
	h.Post(":id/migrate", c.Migrate)
	h.Delete(":id", c.Delete)
	h.Put(":id/note", c.SaveNote)
	h.Get(":id/note", c.ShowNote)
	h.Delete(":id/note", c.DeleteNote)
}

func currentUser(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

func currentToken(ctx *fiber.Ctx) string {
	token, _ := ctx.Locals("token").(string)
	return token
}

func (c *reportController) Create(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)

	var req dto.CreateReportRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return err
	}

	res, err := c.reportService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create report", res))
}

func (c *reportController) List(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)

	res, err := c.reportService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list reports", res))
}

func (c *reportController) Show(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.reportService.Open(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show report", res))
}

func (c *reportController) WriteSection(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.WriteSectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id
	req.SectionKey = ctx.Params("key")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reportService.WriteSection(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success write section", res))
}

func (c *reportController) NextSection(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.reportService.NextSection(ctx.Context(), userId, id, ctx.Params("key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success next section", res))
}

func (c *reportController) Progress(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.reportService.Progress(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success report progress", res))
}

func (c *reportController) Submit(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.reportService.Submit(ctx.Context(), currentToken(ctx), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit report", res))
}

func (c *reportController) Migrate(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.reportService.Migrate(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success migrate report", res))
}

func (c *reportController) Delete(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.reportService.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete report", nil))
}

func (c *reportController) SaveNote(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.SaveNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reportService.SaveNote(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save note", res))
}

func (c *reportController) ShowNote(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.reportService.ShowNote(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show note", res))
}

func (c *reportController) DeleteNote(ctx *fiber.Ctx) error {
	userId := currentUser(ctx)
	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.reportService.DeleteNote(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete note", nil))
}
