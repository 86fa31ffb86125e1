package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name               string `json:"name"`
	GroupID            string `json:"group_id"`
	InitialBalance     string `json:"initial_balance"`
	IsIncludedInTotals bool   `json:"is_included_in_totals"`
	SortOrder          int    `json:"sort_order"`
}

type updateRequest struct {
	Name               string `json:"name"`
	GroupID            string `json:"group_id"`
	IsIncludedInTotals bool   `json:"is_included_in_totals"`
	SortOrder          int    `json:"sort_order"`
}

type walletResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	GroupID            string    `json:"group_id,omitempty"`
	Balance            string    `json:"balance"`
	IsIncludedInTotals bool      `json:"is_included_in_totals"`
	SortOrder          int       `json:"sort_order"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:                 w.ID,
		Name:               w.Name,
		GroupID:            w.GroupID,
		Balance:            w.Balance.String(),
		IsIncludedInTotals: w.IsIncludedInTotals,
		SortOrder:          w.SortOrder,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

func workspaceID(c *fiber.Ctx) (string, error) {
	id, _ := c.Locals("workspace_id").(string)
	if id == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "workspace not resolved")
	}
	return id, nil
}

// Create provisions a wallet for the workspace.
func (h *Handler) Create(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name is required")
	}
	balance := decimal.Zero
	if req.InitialBalance != "" {
		balance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid initial_balance")
		}
	}
	w, err := h.service.Create(c.UserContext(), wsID, CreateInput{
		Name:               req.Name,
		GroupID:            req.GroupID,
		InitialBalance:     balance,
		IsIncludedInTotals: req.IsIncludedInTotals,
		SortOrder:          req.SortOrder,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Get returns a single wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	w, err := h.service.Get(c.UserContext(), wsID, c.Params("walletId"))
	if err != nil {
		return notFoundOr500(err)
	}
	return c.JSON(toResponse(w))
}

// List returns all live wallets for the workspace.
func (h *Handler) List(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	wallets, err := h.service.List(c.UserContext(), wsID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	items := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		items = append(items, toResponse(w))
	}
	return c.JSON(fiber.Map{"items": items})
}

// Update renames or reorders a wallet.
func (h *Handler) Update(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name is required")
	}
	w, err := h.service.Update(c.UserContext(), wsID, c.Params("walletId"), UpdateInput{
		Name:               req.Name,
		GroupID:            req.GroupID,
		IsIncludedInTotals: req.IsIncludedInTotals,
		SortOrder:          req.SortOrder,
	})
	if err != nil {
		return notFoundOr500(err)
	}
	return c.JSON(toResponse(w))
}

// Delete soft-deletes a wallet.
func (h *Handler) Delete(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), wsID, c.Params("walletId")); err != nil {
		return notFoundOr500(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func notFoundOr500(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}
