package workflow

import (
	"net/url"
	"strings"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

// normalizeItems validates line items and returns them trimmed together with their shared currency.
func normalizeItems(items []domain.Item) ([]domain.Item, string, error) {
	if len(items) == 0 {
		return nil, "", apperrors.NewValidationError("at least one item is required", nil)
	}
	out := make([]domain.Item, 0, len(items))
	currency := ""
	for i, item := range items {
		normalized, err := normalizeItem(i, item)
		if err != nil {
			return nil, "", err
		}
		if currency == "" {
			currency = normalized.Currency
		} else if normalized.Currency != currency {
			return nil, "", apperrors.NewValidationError("all items must share one currency", map[string]any{
				"item_index": i,
				"currency":   normalized.Currency,
				"expected":   currency,
			})
		}
		out = append(out, normalized)
	}
	return out, currency, nil
}

func normalizeItem(index int, item domain.Item) (domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.URL = strings.TrimSpace(item.URL)
	item.Currency = normalizeCurrency(item.Currency)
	item.Size = strings.TrimSpace(item.Size)
	item.Color = strings.TrimSpace(item.Color)
	item.Description = strings.TrimSpace(item.Description)

	switch {
	case item.Name == "":
		return item, itemError(index, "name", "item name is required")
	case !validProductURL(item.URL):
		return item, itemError(index, "url", "item url must be an absolute http(s) url")
	case item.Quantity < 1:
		return item, itemError(index, "quantity", "item quantity must be at least 1")
	case item.Price.IsNegative():
		return item, itemError(index, "price", "item price cannot be negative")
	case item.Currency == "":
		return item, itemError(index, "currency", "item currency is required")
	}
	return item, nil
}

func itemError(index int, field, message string) error {
	return apperrors.NewValidationError(message, map[string]any{"item_index": index, "field": field})
}

func validProductURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func trimAddress(a domain.Address) domain.Address {
	return domain.Address{
		Name:       strings.TrimSpace(a.Name),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		Country:    strings.TrimSpace(a.Country),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

func checkItemIndex(req *domain.Request, index int) error {
	if index < 0 || index >= len(req.Items) {
		return apperrors.NewValidationError("item index out of range", map[string]any{
			"item_index": index,
			"item_count": len(req.Items),
		})
	}
	return nil
}
