package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletbook/walletbook/internal/ledger"
)

// RegisterTransactionRoutes wires the ledger-backed transaction endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler) {
	r.Post("/transactions", h.Create)
	r.Get("/transactions", h.List)
	r.Get("/transactions/:txId", h.Get)
	r.Patch("/transactions/:txId", h.Update)
	r.Delete("/transactions/:txId", h.Delete)
}
