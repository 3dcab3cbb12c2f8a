// Package provider contains market data adapters for external feeds.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/obohaghogho/fxwallet/pkg/config"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/provider"
	"github.com/shopspring/decimal"
)

// ExchangeRateAPI adapts an exchangerate-api.com style feed to the
// RateSource contract. Every call is bounded by the HTTP client timeout;
// a hang surfaces as an error, which the quote engine maps to
// RateUnavailable.
type ExchangeRateAPI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type pairResponse struct {
	Result         string  `json:"result"`
	BaseCode       string  `json:"base_code"`
	TargetCode     string  `json:"target_code"`
	ConversionRate float64 `json:"conversion_rate"`
	ErrorType      string  `json:"error-type,omitempty"`
}

// NewExchangeRateAPI creates the adapter from config.
func NewExchangeRateAPI(cfg *config.Exchange, logger *slog.Logger) *ExchangeRateAPI {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ExchangeRateAPI{
		apiKey:     cfg.ApiKey,
		baseURL:    cfg.ApiUrl,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetRate implements provider.RateSource.
func (p *ExchangeRateAPI) GetRate(
	ctx context.Context,
	base, quote currency.Code,
) (*provider.RateInfo, error) {
	url := fmt.Sprintf("%s/%s/pair/%s/%s", p.baseURL, p.apiKey, base, quote)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rate %s/%s: %w", base, quote, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate API status %d: %s", resp.StatusCode, string(body))
	}

	var out pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", err)
	}
	if out.Result != "success" {
		return nil, fmt.Errorf("rate API result=%s error=%s", out.Result, out.ErrorType)
	}

	price := decimal.NewFromFloat(out.ConversionRate)
	if !price.IsPositive() {
		return nil, fmt.Errorf("rate API returned non-positive price %s for %s/%s",
			price, base, quote)
	}

	return &provider.RateInfo{
		Base:      base,
		Quote:     quote,
		Price:     price,
		Source:    p.Name(),
		Timestamp: time.Now().UTC(),
	}, nil
}

// Name implements provider.RateSource.
func (p *ExchangeRateAPI) Name() string { return "exchangerate-api" }

// IsHealthy implements provider.RateSource.
func (p *ExchangeRateAPI) IsHealthy() bool { return p.baseURL != "" }
