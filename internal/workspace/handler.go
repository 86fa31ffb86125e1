package workspace

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes workspace HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a workspace HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string `json:"name"`
}

// Create registers a workspace. The response carries the access secret once;
// it cannot be recovered later.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	ws, secret, err := h.service.Create(c.UserContext(), req.Name)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":         ws.ID,
		"name":       ws.Name,
		"secret":     secret,
		"created_at": ws.CreatedAt,
	})
}
