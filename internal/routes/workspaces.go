package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletbook/walletbook/internal/workspace"
)

// RegisterWorkspaceRoutes wires workspace registration.
func RegisterWorkspaceRoutes(r fiber.Router, h *workspace.Handler) {
	r.Post("/workspaces", h.Create)
}
