package webapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/config"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/middleware"
	walletsvc "github.com/obohaghogho/fxwallet/pkg/service/wallet"
	"github.com/shopspring/decimal"
)

// CreateWalletRequest provisions a wallet for a currency.
type CreateWalletRequest struct {
	Currency string `json:"currency" validate:"required,uppercase,min=2,max=5"`
}

// TransferRequest moves same-currency funds to another user.
type TransferRequest struct {
	ToUserID       string `json:"to_user_id" validate:"required,uuid4"`
	Currency       string `json:"currency" validate:"required,uppercase,min=2,max=5"`
	Amount         string `json:"amount" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required,max=128"`
	Tier           string `json:"tier" validate:"omitempty,oneof=STANDARD SILVER GOLD PLATINUM"`
}

// WithdrawRequest debits funds toward an external destination.
type WithdrawRequest struct {
	Currency       string `json:"currency" validate:"required,uppercase,min=2,max=5"`
	Amount         string `json:"amount" validate:"required"`
	Destination    string `json:"destination" validate:"required,max=256"`
	IdempotencyKey string `json:"idempotency_key" validate:"required,max=128"`
	Tier           string `json:"tier" validate:"omitempty,oneof=STANDARD SILVER GOLD PLATINUM"`
}

// DepositRequest credits funds captured by an upstream payment.
type DepositRequest struct {
	Currency         string `json:"currency" validate:"required,uppercase,min=2,max=5"`
	Amount           string `json:"amount" validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"required,max=256"`
	IdempotencyKey   string `json:"idempotency_key" validate:"required,max=128"`
}

// WalletRoutes registers HTTP routes for wallet operations.
//
// Routes:
//   - POST /wallet                        : Create a wallet for a currency.
//   - GET  /wallet                        : List the user's wallets.
//   - GET  /wallet/:currency/balance      : Read one wallet's balances.
//   - GET  /wallet/:currency/transactions : List one wallet's transactions.
//   - POST /wallet/transfer               : Transfer funds to another user.
//   - POST /wallet/withdraw               : Withdraw toward an external destination.
//   - POST /wallet/deposit                : Credit an upstream payment.
func WalletRoutes(app *fiber.App, svc *walletsvc.Service, cfg *config.App) {
	app.Post("/wallet", middleware.JwtProtected(cfg.Jwt), CreateWallet(svc))
	app.Get("/wallet", middleware.JwtProtected(cfg.Jwt), ListWallets(svc))
	app.Get("/wallet/:currency/balance", middleware.JwtProtected(cfg.Jwt), GetBalance(svc))
	app.Get("/wallet/:currency/transactions", middleware.JwtProtected(cfg.Jwt), GetTransactions(svc))
	app.Post("/wallet/transfer", middleware.JwtProtected(cfg.Jwt), Transfer(svc))
	app.Post("/wallet/withdraw", middleware.JwtProtected(cfg.Jwt), Withdraw(svc))
	app.Post("/wallet/deposit", middleware.JwtProtected(cfg.Jwt), Deposit(svc))
}

// CreateWallet returns a handler that provisions a zero-balance wallet.
func CreateWallet(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[CreateWalletRequest](c)
		if input == nil {
			return err
		}
		w, err := svc.CreateWallet(c.UserContext(), userID, currency.Code(input.Currency))
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Failed to create wallet")
		}
		return SuccessResponseJSON(c, fiber.StatusCreated, "Wallet created", w)
	}
}

// ListWallets returns a handler that lists the user's wallets.
func ListWallets(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		ws, err := svc.ListWallets(c.UserContext(), userID)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Failed to list wallets")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Wallets", ws)
	}
}

// GetBalance returns a handler that reads one wallet's balances.
func GetBalance(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		code, err := currency.Parse(c.Params("currency"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid currency", err.Error())
		}
		w, err := svc.GetWallet(c.UserContext(), userID, code)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Failed to read wallet")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Wallet balance", fiber.Map{
			"currency":          w.Currency,
			"balance":           w.Balance,
			"available_balance": w.AvailableBalance,
			"frozen":            w.Frozen,
		})
	}
}

// GetTransactions returns a handler that lists one wallet's transactions.
func GetTransactions(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		code, err := currency.Parse(c.Params("currency"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid currency", err.Error())
		}
		txs, err := svc.ListTransactions(c.UserContext(), userID, code)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Failed to list transactions")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Transactions", txs)
	}
}

// Transfer returns a handler that moves same-currency funds to another user.
func Transfer(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		toUserID, err := uuid.Parse(input.ToUserID)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid recipient", err.Error())
		}
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}
		tx, err := svc.Transfer(
			c.UserContext(),
			userID,
			toUserID,
			currency.Code(input.Currency),
			amount,
			input.IdempotencyKey,
			domain.ParseTier(input.Tier),
		)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Transfer failed")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Transfer completed", tx)
	}
}

// Withdraw returns a handler that debits funds toward an external
// destination and records the pending transaction.
func Withdraw(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[WithdrawRequest](c)
		if input == nil {
			return err
		}
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}
		tx, err := svc.Withdraw(
			c.UserContext(),
			userID,
			currency.Code(input.Currency),
			amount,
			input.Destination,
			input.IdempotencyKey,
			domain.ParseTier(input.Tier),
		)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Withdrawal failed")
		}
		return SuccessResponseJSON(c, fiber.StatusAccepted, "Withdrawal pending", tx)
	}
}

// Deposit returns a handler that credits a wallet from an upstream
// payment reference.
func Deposit(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[DepositRequest](c)
		if input == nil {
			return err
		}
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}
		tx, err := svc.Deposit(
			c.UserContext(),
			userID,
			currency.Code(input.Currency),
			amount,
			input.PaymentReference,
			input.IdempotencyKey,
		)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Deposit failed")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Deposit completed", tx)
	}
}
