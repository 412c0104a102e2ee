package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/config"
	"hotel-backoffice/internal/models"
)

func line(quantity int, unitPrice string) models.DraftLineItem {
	price := decimal.RequireFromString(unitPrice)
	return models.DraftLineItem{
		Quantity:   quantity,
		UnitPrice:  price,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		lines      []models.DraftLineItem
		subtotal   string
		tax        string
		service    string
		grandTotal string
	}{
		{
			name:       "two lines at default rates",
			lines:      []models.DraftLineItem{line(2, "100"), line(1, "50")},
			subtotal:   "250",
			tax:        "45",
			service:    "25",
			grandTotal: "320",
		},
		{
			name:       "empty draft",
			lines:      nil,
			subtotal:   "0",
			tax:        "0",
			service:    "0",
			grandTotal: "0",
		},
		{
			name:       "fractional amounts round to 2dp before summing",
			lines:      []models.DraftLineItem{line(3, "33.33")},
			subtotal:   "99.99",
			tax:        "18.00",
			service:    "10.00",
			grandTotal: "127.99",
		},
		{
			name:       "single cheap item",
			lines:      []models.DraftLineItem{line(1, "0.10")},
			subtotal:   "0.10",
			tax:        "0.02",
			service:    "0.01",
			grandTotal: "0.13",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.lines, DefaultRates())

			assertDecimal(t, "subtotal", got.Subtotal, tt.subtotal)
			assertDecimal(t, "tax", got.TaxAmount, tt.tax)
			assertDecimal(t, "service charge", got.ServiceChargeAmount, tt.service)
			assertDecimal(t, "grand total", got.GrandTotal, tt.grandTotal)

			sum := got.Subtotal.Add(got.TaxAmount).Add(got.ServiceChargeAmount)
			if !got.GrandTotal.Equal(sum) {
				t.Errorf("grand total %s drifts from sum of parts %s", got.GrandTotal, sum)
			}
		})
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	lines := []models.DraftLineItem{line(2, "199.99"), line(5, "12.50")}

	first := Compute(lines, DefaultRates())
	second := Compute(lines, DefaultRates())

	if !first.Subtotal.Equal(second.Subtotal) ||
		!first.TaxAmount.Equal(second.TaxAmount) ||
		!first.ServiceChargeAmount.Equal(second.ServiceChargeAmount) ||
		!first.GrandTotal.Equal(second.GrandTotal) {
		t.Errorf("repeated Compute produced different breakdowns: %+v vs %+v", first, second)
	}
}

func TestRatesFromConfig(t *testing.T) {
	rates, err := RatesFromConfig(config.PricingConfig{TaxRate: "0.18", ServiceChargeRate: "0.10"})
	if err != nil {
		t.Fatalf("RatesFromConfig returned error: %v", err)
	}
	if !rates.Tax.Equal(decimal.RequireFromString("0.18")) {
		t.Errorf("tax rate = %s, want 0.18", rates.Tax)
	}
	if !rates.ServiceCharge.Equal(decimal.RequireFromString("0.10")) {
		t.Errorf("service charge rate = %s, want 0.10", rates.ServiceCharge)
	}

	if _, err := RatesFromConfig(config.PricingConfig{TaxRate: "abc", ServiceChargeRate: "0.10"}); err == nil {
		t.Error("expected error for malformed tax rate")
	}
	if _, err := RatesFromConfig(config.PricingConfig{TaxRate: "0.18", ServiceChargeRate: "-0.10"}); err == nil {
		t.Error("expected error for negative service charge rate")
	}
}

func TestSubtotal(t *testing.T) {
	lines := []models.DraftLineItem{line(2, "100"), line(1, "49.95")}
	assertDecimal(t, "group subtotal", Subtotal(lines), "249.95")
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}
