package controller

import (
	"io"
	"path/filepath"

	"ai-shopping-assistant-be/internal/dto"
	"ai-shopping-assistant-be/internal/pkg/serverutils"
	"ai-shopping-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	UploadAndQuery(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	frontendDir      string
}

func NewAssistantController(assistantService service.IAssistantService, frontendDir string) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		frontendDir:      frontendDir,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Index)
	r.Get("/healthz", c.Health)
	r.Post("/upload_and_query", c.UploadAndQuery)
}

// UploadAndQuery answers a question about the session's latest image.
// It always responds 200 with the ok envelope.
func (c *assistantController) UploadAndQuery(ctx *fiber.Ctx) error {
	// FormValue aliases the request buffer, which fasthttp reuses.
	req := dto.AskRequest{Query: utils.CopyString(ctx.FormValue("query"))}

	if file, err := ctx.FormFile("image"); err == nil && file.Filename != "" {
		f, err := file.Open()
		if err == nil {
			data, readErr := io.ReadAll(f)
			f.Close()
			if readErr == nil {
				req.Image = data
				req.ImageName = file.Filename
			}
		}
		if req.Image == nil {
			// unreadable upload: decode fails and the session's image is cleared
			req.Image = []byte{}
			req.ImageName = file.Filename
		}
	}

	res := c.assistantService.Ask(ctx.UserContext(), serverutils.SessionID(ctx), &req)
	return ctx.JSON(res)
}

func (c *assistantController) Index(ctx *fiber.Ctx) error {
	return ctx.SendFile(filepath.Join(c.frontendDir, "index.html"))
}

func (c *assistantController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
