package workflow

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

// Reconcile checks a submitted payment against the total computed from the current items.
// The comparison is exact and the currency must be stated and equal the request's.
func Reconcile(req *domain.Request, amount decimal.Decimal, currency string) error {
	expected := domain.SumItems(req.Items)
	currency = normalizeCurrency(currency)
	if currency != req.Currency {
		return apperrors.NewValidationError("payment currency does not match request currency", map[string]any{
			"expected_currency":  req.Currency,
			"submitted_currency": currency,
		})
	}
	if !amount.Equal(expected) {
		return apperrors.NewValidationError("payment amount does not match order total", map[string]any{
			"expected_amount":  expected.String(),
			"submitted_amount": amount.String(),
			"currency":         req.Currency,
		})
	}
	return nil
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
