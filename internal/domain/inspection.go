package domain

import "time"

// ItemInspection is the QC record for one item.
type ItemInspection struct {
	ItemIndex int           `json:"item_index"`
	Condition ItemCondition `json:"condition"`
	Notes     string        `json:"notes,omitempty"`
	Photos    []string      `json:"photos,omitempty"`
}

// QualityControl is produced by staff after purchase and before forwarding to the customer.
type QualityControl struct {
	Inspections []ItemInspection `json:"inspections"`
	Notes       string           `json:"notes,omitempty"`
	Photos      []string         `json:"photos,omitempty"`
	CheckedBy   string           `json:"checked_by"`
	CheckedAt   time.Time        `json:"checked_at"`
}

// CustomerDecision is the customer's verdict on the received goods.
type CustomerDecision string

const (
	CustomerDecisionApproved         CustomerDecision = "approved"
	CustomerDecisionRejected         CustomerDecision = "rejected"
	CustomerDecisionNeedsReplacement CustomerDecision = "needs_replacement"
)

// RequestedAction is what the customer wants done with a rejected item.
type RequestedAction string

const (
	RequestedReturn  RequestedAction = "return"
	RequestedReplace RequestedAction = "replace"
	RequestedRefund  RequestedAction = "refund"
)

// ItemDecision records why the customer rejected an item.
type ItemDecision struct {
	ItemIndex int             `json:"item_index"`
	Reason    string          `json:"reason"`
	Action    RequestedAction `json:"action"`
}

// CustomerReview is the customer's acceptance outcome after QC.
type CustomerReview struct {
	Decision   CustomerDecision `json:"decision"`
	Items      []ItemDecision   `json:"items,omitempty"`
	Comment    string           `json:"comment,omitempty"`
	ReviewedAt time.Time        `json:"reviewed_at"`
}

// ReturnRecord is the staff action on one flagged item.
type ReturnRecord struct {
	ItemIndex         int            `json:"item_index"`
	Action            ItemResolution `json:"action"`
	Reason            string         `json:"reason"`
	Replacement       *Item          `json:"replacement,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	StaffID           string         `json:"staff_id"`
	CreatedAt         time.Time      `json:"created_at"`
}
