package webapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/config"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/middleware"
	quotesvc "github.com/obohaghogho/fxwallet/pkg/service/quote"
	settlementsvc "github.com/obohaghogho/fxwallet/pkg/service/settlement"
	"github.com/shopspring/decimal"
)

// SwapPreviewRequest quotes a swap and locks the rate.
type SwapPreviewRequest struct {
	FromCurrency string `json:"from_currency" validate:"required,uppercase,min=2,max=5"`
	ToCurrency   string `json:"to_currency" validate:"required,uppercase,min=2,max=5"`
	Amount       string `json:"amount" validate:"required"`
	Tier         string `json:"tier" validate:"omitempty,oneof=STANDARD SILVER GOLD PLATINUM"`
}

// SwapExecuteRequest settles a swap, optionally redeeming a held lock.
type SwapExecuteRequest struct {
	LockID         string `json:"lock_id" validate:"omitempty,uuid4"`
	FromCurrency   string `json:"from_currency" validate:"required,uppercase,min=2,max=5"`
	ToCurrency     string `json:"to_currency" validate:"required,uppercase,min=2,max=5"`
	Amount         string `json:"amount" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required,max=128"`
	Tier           string `json:"tier" validate:"omitempty,oneof=STANDARD SILVER GOLD PLATINUM"`
}

// SwapRoutes registers HTTP routes for swap quoting and settlement.
//
// Routes:
//   - POST /swap/preview : Quote a swap and hold the rate under a lock.
//   - POST /swap/execute : Settle a swap, with or without a prior lock.
func SwapRoutes(
	app *fiber.App,
	quotes *quotesvc.Service,
	settlements *settlementsvc.Service,
	cfg *config.App,
) {
	app.Post("/swap/preview", middleware.JwtProtected(cfg.Jwt), SwapPreview(quotes))
	app.Post("/swap/execute", middleware.JwtProtected(cfg.Jwt), SwapExecute(settlements))
}

// SwapPreview returns a handler that quotes a swap for the authenticated
// user and responds with the locked preview, including the lock id and
// its expiry.
func SwapPreview(quotes *quotesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[SwapPreviewRequest](c)
		if input == nil {
			return err
		}
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}

		preview, err := quotes.Preview(
			c.UserContext(),
			userID,
			currency.Code(input.FromCurrency),
			currency.Code(input.ToCurrency),
			amount,
			domain.ParseTier(input.Tier),
		)
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Failed to quote swap")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Swap preview locked", preview)
	}
}

// SwapExecute returns a handler that settles a swap. A lock_id redeems a
// held rate lock; without one the swap is quoted and settled at the
// current rate in a single request.
func SwapExecute(settlements *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[SwapExecuteRequest](c)
		if input == nil {
			return err
		}
		amount, err := decimal.NewFromString(input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid amount", err.Error())
		}
		lockID := uuid.Nil
		if input.LockID != "" {
			lockID, err = uuid.Parse(input.LockID)
			if err != nil {
				return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid lock id", err.Error())
			}
		}

		result, err := settlements.Execute(c.UserContext(), settlementsvc.Request{
			UserID:         userID,
			FromCurrency:   currency.Code(input.FromCurrency),
			ToCurrency:     currency.Code(input.ToCurrency),
			Amount:         amount,
			IdempotencyKey: input.IdempotencyKey,
			Tier:           domain.ParseTier(input.Tier),
			LockID:         lockID,
		})
		if errors.Is(err, domain.ErrDuplicateRequest) {
			// The swap already settled under this idempotency key; tell
			// the client so rather than reporting a failure.
			return SuccessResponseJSON(c, fiber.StatusConflict,
				"Swap already settled for this idempotency key", nil)
		}
		if err != nil {
			return DomainErrorResponseJSON(c, err, "Swap failed")
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Swap settled", result)
	}
}
