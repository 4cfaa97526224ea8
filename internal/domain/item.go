package domain

import "github.com/shopspring/decimal"

// ItemCondition is the QC verdict for a purchased item.
type ItemCondition string

const (
	ConditionExcellent ItemCondition = "excellent"
	ConditionGood      ItemCondition = "good"
	ConditionFair      ItemCondition = "fair"
	ConditionDamaged   ItemCondition = "damaged"
	ConditionDefective ItemCondition = "defective"
)

// Valid reports whether c is a known condition.
func (c ItemCondition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionDamaged, ConditionDefective:
		return true
	}
	return false
}

// ItemResolution is the staff action taken on an item the customer flagged.
type ItemResolution string

const (
	ResolutionReturn  ItemResolution = "return"
	ResolutionReplace ItemResolution = "replace"
)

// Item is a line of a request. It has no identity outside its parent.
type Item struct {
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Description string          `json:"description,omitempty"`
	Images      []string        `json:"images,omitempty"`

	Condition        ItemCondition  `json:"condition,omitempty"`
	CustomerDecision *ItemDecision  `json:"customer_decision,omitempty"`
	Resolution       ItemResolution `json:"resolution,omitempty"`
}

// LineTotal is price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Flagged reports whether the customer rejected the item and staff has not acted yet.
func (i Item) Flagged() bool {
	return i.CustomerDecision != nil && i.Resolution == ""
}
