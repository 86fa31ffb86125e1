package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/transaction"
	"github.com/walletbook/walletbook/internal/wallet"
)

// Handler exposes transaction HTTP endpoints backed by the ledger engine.
type Handler struct {
	engine *Engine
}

// NewHandler builds a transaction HTTP handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type createRequest struct {
	WalletID    string `json:"wallet_id"`
	ToWalletID  string `json:"to_wallet_id"`
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Note        string `json:"note"`
}

type updateRequest struct {
	WalletID    *string `json:"wallet_id"`
	ToWalletID  *string `json:"to_wallet_id"`
	CategoryID  *string `json:"category_id"`
	Amount      *string `json:"amount"`
	Date        *string `json:"date"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Note        *string `json:"note"`
}

type txResponse struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"wallet_id"`
	ToWalletID  string    `json:"to_wallet_id,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const dateLayout = "2006-01-02"

func toResponse(t transaction.Transaction) txResponse {
	return txResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		ToWalletID:  t.ToWalletID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount.String(),
		Date:        t.Date.Format(dateLayout),
		Type:        string(t.Type),
		Description: t.Description,
		Note:        t.Note,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func workspaceID(c *fiber.Ctx) (string, error) {
	id, _ := c.Locals("workspace_id").(string)
	if id == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "workspace not resolved")
	}
	return id, nil
}

func parseDate(value string) (time.Time, error) {
	if d, err := time.Parse(dateLayout, value); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Create records a new transaction.
func (h *Handler) Create(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid date")
	}

	t, err := h.engine.Create(c.UserContext(), wsID, CreateInput{
		WalletID:    req.WalletID,
		ToWalletID:  req.ToWalletID,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Date:        date,
		Type:        transaction.Type(req.Type),
		Description: req.Description,
		Note:        req.Note,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(t))
}

// Update edits a transaction.
func (h *Handler) Update(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	patch := UpdateInput{
		WalletID:    req.WalletID,
		ToWalletID:  req.ToWalletID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Note:        req.Note,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid amount")
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid date")
		}
		patch.Date = &date
	}
	if req.Type != nil {
		typ := transaction.Type(*req.Type)
		patch.Type = &typ
	}

	t, err := h.engine.Update(c.UserContext(), wsID, c.Params("txId"), patch)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toResponse(t))
}

// Delete soft-deletes a transaction and reverses its balance effect.
func (h *Handler) Delete(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	if err := h.engine.Delete(c.UserContext(), wsID, c.Params("txId")); err != nil {
		return mapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get returns a single transaction.
func (h *Handler) Get(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}
	t, err := h.engine.Get(c.UserContext(), wsID, c.Params("txId"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toResponse(t))
}

// List returns a filtered, paginated transaction listing.
func (h *Handler) List(c *fiber.Ctx) error {
	wsID, err := workspaceID(c)
	if err != nil {
		return err
	}

	filter := transaction.Filter{
		Type:       transaction.Type(c.Query("type")),
		WalletID:   c.Query("wallet_id"),
		CategoryID: c.Query("category_id"),
	}
	if v := c.Query("date_from"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid date_from")
		}
		filter.DateFrom = &d
	}
	if v := c.Query("date_to"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid date_to")
		}
		filter.DateTo = &d
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))

	result, err := h.engine.List(c.UserContext(), wsID, filter, page, limit)
	if err != nil {
		return mapError(err)
	}

	items := make([]txResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, toResponse(t))
	}
	return c.JSON(fiber.Map{
		"items":       items,
		"total":       result.Total,
		"page":        result.Page,
		"limit":       result.Limit,
		"total_pages": result.TotalPages,
	})
}

func mapError(err error) error {
	var ve ValidationError
	if errors.As(err, &ve) {
		return fiber.NewError(http.StatusBadRequest, ve.Error())
	}
	if errors.Is(err, wallet.ErrNotFound) || errors.Is(err, transaction.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	// Consistency failures surface as a generic error; details are already logged.
	return fiber.NewError(http.StatusInternalServerError, "ledger operation failed")
}
