// Package pricing computes the money breakdown of a draft order. It is
// pure: the same line items and rates always produce the same breakdown,
// and nothing here mutates shared state. The console recomputes it on
// every draft mutation for display and once more, authoritatively, at
// commit time.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/config"
	"hotel-backoffice/internal/models"
)

// Rates holds the percentage rates applied on top of the subtotal.
type Rates struct {
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
}

// DefaultRates returns the standard hotel rates: 18% tax and 10%
// service charge.
func DefaultRates() Rates {
	return Rates{
		Tax:           decimal.New(18, -2),
		ServiceCharge: decimal.New(10, -2),
	}
}

// RatesFromConfig parses the configured rate strings.
func RatesFromConfig(cfg config.PricingConfig) (Rates, error) {
	tax, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Rates{}, fmt.Errorf("invalid tax_rate %q: %w", cfg.TaxRate, err)
	}
	service, err := decimal.NewFromString(cfg.ServiceChargeRate)
	if err != nil {
		return Rates{}, fmt.Errorf("invalid service_charge_rate %q: %w", cfg.ServiceChargeRate, err)
	}
	if tax.IsNegative() || service.IsNegative() {
		return Rates{}, fmt.Errorf("pricing rates must not be negative")
	}
	return Rates{Tax: tax, ServiceCharge: service}, nil
}

// Compute derives the breakdown from the given line items. Every derived
// amount is rounded to 2 decimal places before the grand total is summed,
// so the grand total always equals the sum of its displayed parts.
func Compute(lines []models.DraftLineItem, rates Rates) models.PricingBreakdown {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice)
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(rates.Tax).Round(2)
	service := subtotal.Mul(rates.ServiceCharge).Round(2)

	return models.PricingBreakdown{
		Subtotal:            subtotal,
		TaxAmount:           tax,
		ServiceChargeAmount: service,
		GrandTotal:          subtotal.Add(tax).Add(service),
	}
}

// Subtotal sums the line totals of one routing group, rounded to 2
// decimal places. Group orders carry their own subtotal downstream.
func Subtotal(lines []models.DraftLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalPrice)
	}
	return total.Round(2)
}
