package workflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/buyforme-service/internal/domain"
)

// Command is the payload of a single transition.
type Command interface {
	Transition() domain.Transition
}

// CreateCommand opens a new request for a customer.
type CreateCommand struct {
	CustomerID string
	Items      []domain.Item
	Address    domain.Address
	Notes      string
	Priority   domain.RequestPriority
}

// ModifyCommand replaces the editable parts of a pending request. Nil fields are left alone.
type ModifyCommand struct {
	Items   []domain.Item
	Address *domain.Address
	Notes   *string
}

// ItemPrice re-prices one item during an approving review.
type ItemPrice struct {
	ItemIndex int
	Price     decimal.Decimal
}

// ReviewCommand is a staff review decision.
type ReviewCommand struct {
	Decision        domain.ReviewStatus
	Comment         string
	RejectionReason string
	Internal        bool
	ItemPrices      []ItemPrice
}

// PaymentCommand records a payment that must reconcile with the order total.
type PaymentCommand struct {
	Amount    decimal.Decimal
	Currency  string
	Reference string
}

// PurchaseCommand records the purchase from the third-party store.
type PurchaseCommand struct {
	Supplier            string
	SupplierOrderNumber string
	Notes               string
}

// QualityControlCommand records the staff inspection of purchased items.
type QualityControlCommand struct {
	Inspections []domain.ItemInspection
	Notes       string
	Photos      []string
}

// CustomerReviewCommand is the customer's verdict on the inspected goods.
type CustomerReviewCommand struct {
	Decision domain.CustomerDecision
	Items    []domain.ItemDecision
	Comment  string
}

// PackingCommand records the packing preference.
type PackingCommand struct {
	Choice domain.PackingChoice
}

// ShipCommand marks the request as handed to a carrier.
type ShipCommand struct {
	Carrier           string
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// DeliverCommand marks the request as delivered.
type DeliverCommand struct {
	DeliveredAt *time.Time
}

// ReturnCommand records a return or replacement for an item the customer flagged.
type ReturnCommand struct {
	ItemIndex         int
	Action            domain.ItemResolution
	Reason            string
	Replacement       *domain.Item
	EstimatedDelivery *time.Time
}

// DeleteCommand removes a pending request.
type DeleteCommand struct{}

func (CreateCommand) Transition() domain.Transition { return domain.TransitionCreate }
func (ModifyCommand) Transition() domain.Transition { return domain.TransitionModify }
func (ReviewCommand) Transition() domain.Transition { return domain.TransitionReview }
func (PaymentCommand) Transition() domain.Transition { return domain.TransitionProcessPayment }
func (PurchaseCommand) Transition() domain.Transition { return domain.TransitionMarkPurchased }
func (QualityControlCommand) Transition() domain.Transition { return domain.TransitionQualityControl }
func (CustomerReviewCommand) Transition() domain.Transition { return domain.TransitionCustomerReview }
func (PackingCommand) Transition() domain.Transition { return domain.TransitionPackingChoice }
func (ShipCommand) Transition() domain.Transition { return domain.TransitionShip }
func (DeliverCommand) Transition() domain.Transition { return domain.TransitionDeliver }
func (ReturnCommand) Transition() domain.Transition { return domain.TransitionReturnOrReplace }
func (DeleteCommand) Transition() domain.Transition { return domain.TransitionDelete }
