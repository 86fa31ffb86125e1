package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/walletbook/walletbook/internal/workspace"
)

const workspaceIDHeader = "X-Workspace-ID"

// WorkspaceAuth resolves the tenant for a request from the X-Workspace-ID
// header and a bearer secret, and stores the workspace id in locals for
// handlers. Requests with a missing or wrong secret never reach the ledger.
func WorkspaceAuth(svc *workspace.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wsID := c.Get(workspaceIDHeader)
		if wsID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing "+workspaceIDHeader+" header")
		}

		secret := bearerToken(c.Get(fiber.HeaderAuthorization))
		if secret == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer secret")
		}

		ws, err := svc.Authenticate(c.UserContext(), wsID, secret)
		if err != nil {
			if errors.Is(err, workspace.ErrNotFound) || errors.Is(err, workspace.ErrInvalidSecret) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid workspace credentials")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "workspace lookup failed")
		}

		c.Locals("workspace_id", ws.ID)
		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
