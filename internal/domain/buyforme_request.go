package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the primary lifecycle state of a BuyForMe request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusShipped    RequestStatus = "shipped"
	RequestStatusDelivered  RequestStatus = "delivered"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// SubStatus marks progress inside a primary status.
type SubStatus string

const (
	SubStatusAwaitingReview     SubStatus = "awaiting_review"
	SubStatusResubmitted        SubStatus = "resubmitted"
	SubStatusPaymentCompleted   SubStatus = "payment_completed"
	SubStatusPurchased          SubStatus = "purchased"
	SubStatusQualityChecked     SubStatus = "quality_checked"
	SubStatusCustomerApproved   SubStatus = "customer_approved"
	SubStatusReturnRequested    SubStatus = "return_requested"
	SubStatusPackingSelected    SubStatus = "packing_selected"
	SubStatusReplacementPending SubStatus = "replacement_pending"
	SubStatusReturned           SubStatus = "returned"
)

// ReviewStatus is the outcome of the most recent staff review.
type ReviewStatus string

const (
	ReviewStatusPending           ReviewStatus = "pending"
	ReviewStatusApproved          ReviewStatus = "approved"
	ReviewStatusRejected          ReviewStatus = "rejected"
	ReviewStatusNeedsModification ReviewStatus = "needs_modification"
)

// PaymentStatus tracks money captured for the request.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// RequestPriority is informational and never gates a transition.
type RequestPriority string

const (
	RequestPriorityLow    RequestPriority = "low"
	RequestPriorityMedium RequestPriority = "medium"
	RequestPriorityHigh   RequestPriority = "high"
)

// Request is the BuyForMe aggregate root.
type Request struct {
	ID            string
	RequestNumber string
	CustomerID    string
	CustomerName  string
	CustomerEmail string

	Items       []Item
	Currency    string
	TotalAmount decimal.Decimal
	Notes       string

	Status          RequestStatus
	SubStatus       SubStatus
	ReviewStatus    ReviewStatus
	PaymentStatus   PaymentStatus
	Priority        RequestPriority
	RejectionReason string

	Shipping       Shipping
	Payment        *PaymentRecord
	Purchase       *PurchaseRecord
	QualityControl *QualityControl
	CustomerReview *CustomerReview
	Packing        *PackingRecord
	Returns        []ReturnRecord

	ReviewComments []ReviewComment
	History        []HistoryEntry

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecalculateTotal recomputes TotalAmount from the current items.
func (r *Request) RecalculateTotal() decimal.Decimal {
	r.TotalAmount = SumItems(r.Items)
	return r.TotalAmount
}

// SumItems returns Σ price × quantity.
func SumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Address is the shipping destination.
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone,omitempty"`
}

// Complete reports whether every mandatory field is present.
func (a Address) Complete() bool {
	return a.Name != "" && a.Street != "" && a.City != "" && a.Country != "" && a.PostalCode != ""
}

// Shipping holds destination and carrier tracking data.
type Shipping struct {
	Address           Address    `json:"address"`
	Carrier           string     `json:"carrier,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time `json:"actual_delivery,omitempty"`
	ShippedAt         *time.Time `json:"shipped_at,omitempty"`
}

// PaymentRecord describes a reconciled payment.
type PaymentRecord struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	StaffID   string          `json:"staff_id"`
}

// PurchaseRecord describes the order placed with the third-party store.
type PurchaseRecord struct {
	Supplier            string    `json:"supplier"`
	SupplierOrderNumber string    `json:"supplier_order_number,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	PurchasedAt         time.Time `json:"purchased_at"`
	StaffID             string    `json:"staff_id"`
}

// PackingChoice is the customer's shipping preference once items are ready.
type PackingChoice string

const (
	PackingPackNow   PackingChoice = "pack_now"
	PackingWaitInBox PackingChoice = "wait_in_box"
)

// PackingRecord stores the packing decision.
type PackingRecord struct {
	Choice    PackingChoice `json:"choice"`
	ChosenBy  string        `json:"chosen_by"`
	ChosenAt  time.Time     `json:"chosen_at"`
	ActorKind ActorKind     `json:"actor_kind"`
}
