package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/transfer-backend/internal/domain"
	"github.com/ledgerline/transfer-backend/internal/usecase/account"
	"github.com/ledgerline/transfer-backend/internal/usecase/transfer"
)

// Handler exposes the transfer core over HTTP/JSON
type Handler struct {
	Transfers *transfer.Service
	Accounts  *account.Service
	Ledger    domain.TransactionStore

	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler instance
func NewHandler(transfers *transfer.Service, accounts *account.Service, ledger domain.TransactionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		Transfers: transfers,
		Accounts:  accounts,
		Ledger:    ledger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// Register mounts all routes on the fiber app
func (h *Handler) Register(app *fiber.App) {
	app.Post("/transfer", h.handleTransfer)
	app.Post("/external-transfer", h.handleExternalTransfer)
	app.Get("/transfer-progress", h.handleTransferProgress)
	app.Post("/create-account", h.handleCreateAccount)
	app.Get("/balance", h.handleBalance)
	app.Get("/transactions", h.handleTransactions)
}

type transferRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
	ToAccountID   string `json:"toAccountId" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
}

type externalTransferRequest struct {
	FromAccountID   string `json:"fromAccountId" validate:"required"`
	ExternalAddress string `json:"externalAddress" validate:"required"`
	Amount          string `json:"amount" validate:"required"`
}

type createAccountRequest struct {
	AccountID      string `json:"accountId" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
	InitialBalance string `json:"initialBalance" validate:"required"`
}

type transferResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	TaskID    string `json:"taskId"`
	ErrorCode string `json:"errorCode,omitempty"`
}

type progressResponse struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Balance string `json:"balance,omitempty"`
}

type transactionResponse struct {
	TransactionID         string  `json:"transactionId"`
	FromRef               string  `json:"fromRef"`
	ToRef                 string  `json:"toRef"`
	Amount                string  `json:"amount"`
	Kind                  string  `json:"kind"`
	Status                string  `json:"status"`
	PreviousTransactionID *string `json:"previousTransactionId"`
}

func (h *Handler) handleTransfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result := h.Transfers.Transfer(c.UserContext(), req.FromAccountID, req.ToAccountID, amount)

	return c.Status(statusForResult(result)).JSON(toTransferResponse(result))
}

func (h *Handler) handleExternalTransfer(c *fiber.Ctx) error {
	var req externalTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result := h.Transfers.ExternalTransfer(c.UserContext(), req.FromAccountID, req.ExternalAddress, amount)

	return c.Status(statusForResult(result)).JSON(toTransferResponse(result))
}

func (h *Handler) handleTransferProgress(c *fiber.Ctx) error {
	transferID := c.Query("transferId")

	progress := h.Transfers.TransferProgress(transferID)

	// Unknown IDs yield a synthesized UNKNOWN record, not an error.
	return c.Status(fiber.StatusOK).JSON(progressResponse{
		TransferID: progress.TransferID,
		Status:     string(progress.Status),
	})
}

func (h *Handler) handleCreateAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	initialBalance, err := decimal.NewFromString(req.InitialBalance)
	if err != nil {
		return badRequest(c, "initial balance must be a decimal number")
	}

	if err := h.Accounts.Create(c.UserContext(), req.AccountID, req.UserID, initialBalance); err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(statusResponse{
		Status:  string(domain.ResultSuccess),
		Message: "Account created successfully",
	})
}

func (h *Handler) handleBalance(c *fiber.Ctx) error {
	accountID := c.Query("accountId")

	balance, err := h.Accounts.Balance(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(statusResponse{
				Status:  string(domain.ResultFailure),
				Message: err.Error(),
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(statusResponse{
			Status:  string(domain.ResultFailure),
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(statusResponse{
		Status:  string(domain.ResultSuccess),
		Balance: balance.String(),
	})
}

func (h *Handler) handleTransactions(c *fiber.Ctx) error {
	log, err := h.Ledger.TransactionLog(c.UserContext())
	if err != nil {
		h.logger.Error("failed to read transaction log", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(statusResponse{
			Status:  string(domain.ResultFailure),
			Message: "failed to read transaction log",
		})
	}

	entries := make([]transactionResponse, 0, len(log))
	for _, tx := range log {
		entries = append(entries, transactionResponse{
			TransactionID:         tx.TransactionID,
			FromRef:               tx.FromRef,
			ToRef:                 tx.ToRef,
			Amount:                tx.Amount.String(),
			Kind:                  string(tx.Kind),
			Status:                string(tx.Status),
			PreviousTransactionID: tx.PreviousTransactionID,
		})
	}

	return c.Status(fiber.StatusOK).JSON(entries)
}

// parseAmount parses a decimal amount string. Amounts are parsed exactly;
// binary floating point is never involved.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.New("amount must be a decimal number")
	}

	if !amount.IsPositive() {
		return decimal.Decimal{}, errors.New("amount must be positive")
	}

	return amount, nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(statusResponse{
		Status:  string(domain.ResultFailure),
		Message: message,
	})
}

func toTransferResponse(result domain.TransferResult) transferResponse {
	return transferResponse{
		Status:    string(result.Status),
		Message:   result.Message,
		TaskID:    result.TaskID,
		ErrorCode: string(result.ErrorCode),
	}
}

// statusForResult maps a transfer outcome to an HTTP status code
func statusForResult(result domain.TransferResult) int {
	if result.Status == domain.ResultSuccess {
		return fiber.StatusOK
	}

	switch result.ErrorCode {
	case domain.ErrorCodeInsufficientFunds:
		return fiber.StatusBadRequest
	case domain.ErrorCodeInvalidAccount:
		return fiber.StatusNotFound
	case domain.ErrorCodeTimeout:
		return fiber.StatusRequestTimeout
	case domain.ErrorCodeQueueUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
