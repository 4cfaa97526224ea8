package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/buyforme-service/internal/domain"
	"github.com/spec-kit/buyforme-service/internal/workflow"
)

// ItemRequest describes one product line.
type ItemRequest struct {
	Name        string          `json:"name"        validate:"required,max=500"`
	URL         string          `json:"url"         validate:"required,http_url"`
	Quantity    int             `json:"quantity"    validate:"required,min=1,max=1000"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"    validate:"required,len=3"`
	Size        string          `json:"size"        validate:"max=100"`
	Color       string          `json:"color"       validate:"max=100"`
	Description string          `json:"description" validate:"max=2000"`
	Images      []string        `json:"images"      validate:"omitempty,max=10,dive,http_url"`
}

// AddressRequest is a shipping destination.
type AddressRequest struct {
	Name       string `json:"name"        validate:"required,max=200"`
	Street     string `json:"street"      validate:"required,max=500"`
	City       string `json:"city"        validate:"required,max=200"`
	State      string `json:"state"       validate:"max=200"`
	Country    string `json:"country"     validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Phone      string `json:"phone"       validate:"max=50"`
}

// CreateRequestRequest payload. customer_id is only honoured for staff callers.
type CreateRequestRequest struct {
	CustomerID      string                 `json:"customer_id"      validate:"omitempty,uuid"`
	Items           []ItemRequest          `json:"items"            validate:"required,min=1,max=50,dive"`
	ShippingAddress AddressRequest         `json:"shipping_address"`
	Notes           string                 `json:"notes"            validate:"max=2000"`
	Priority        domain.RequestPriority `json:"priority"         validate:"omitempty,oneof=low medium high"`
}

// ModifyRequestRequest payload. Omitted fields are left unchanged.
type ModifyRequestRequest struct {
	Items           []ItemRequest   `json:"items"            validate:"omitempty,max=50,dive"`
	ShippingAddress *AddressRequest `json:"shipping_address" validate:"omitempty"`
	Notes           *string         `json:"notes"            validate:"omitempty,max=2000"`
}

// ItemPriceRequest re-prices an item during review.
type ItemPriceRequest struct {
	ItemIndex int             `json:"item_index" validate:"min=0"`
	Price     decimal.Decimal `json:"price"`
}

// ReviewRequest is the staff review payload.
type ReviewRequest struct {
	Decision        domain.ReviewStatus `json:"decision"         validate:"required,oneof=approved rejected needs_modification"`
	Comment         string              `json:"comment"          validate:"max=2000"`
	RejectionReason string              `json:"rejection_reason" validate:"max=1000"`
	Internal        bool                `json:"internal"`
	ItemPrices      []ItemPriceRequest  `json:"item_prices"      validate:"omitempty,dive"`
}

// PaymentRequest records a captured payment.
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"  validate:"required,len=3"`
	Reference string          `json:"reference" validate:"max=200"`
}

// PurchaseRequest records the order placed with the store.
type PurchaseRequest struct {
	Supplier            string `json:"supplier"              validate:"required,max=200"`
	SupplierOrderNumber string `json:"supplier_order_number" validate:"max=200"`
	Notes               string `json:"notes"                 validate:"max=2000"`
}

// InspectionRequest is the QC verdict for one item.
type InspectionRequest struct {
	ItemIndex int                  `json:"item_index" validate:"min=0"`
	Condition domain.ItemCondition `json:"condition"  validate:"required,oneof=excellent good fair damaged defective"`
	Notes     string               `json:"notes"      validate:"max=2000"`
	Photos    []string             `json:"photos"     validate:"omitempty,max=20,dive,http_url"`
}

// QualityControlRequest payload.
type QualityControlRequest struct {
	Inspections []InspectionRequest `json:"inspections" validate:"required,min=1,dive"`
	Notes       string              `json:"notes"       validate:"max=2000"`
	Photos      []string            `json:"photos"      validate:"omitempty,max=20,dive,http_url"`
}

// ItemDecisionRequest flags an item during customer review.
type ItemDecisionRequest struct {
	ItemIndex int                    `json:"item_index" validate:"min=0"`
	Reason    string                 `json:"reason"     validate:"required,max=1000"`
	Action    domain.RequestedAction `json:"action"     validate:"required,oneof=return replace refund"`
}

// CustomerReviewRequest payload.
type CustomerReviewRequest struct {
	Decision domain.CustomerDecision `json:"decision" validate:"required,oneof=approved rejected needs_replacement"`
	Items    []ItemDecisionRequest   `json:"items"    validate:"omitempty,dive"`
	Comment  string                  `json:"comment"  validate:"max=2000"`
}

// PackingRequest payload.
type PackingRequest struct {
	Choice domain.PackingChoice `json:"choice" validate:"required,oneof=pack_now wait_in_box"`
}

// ShipRequest payload.
type ShipRequest struct {
	Carrier           string     `json:"carrier"            validate:"required,max=100"`
	TrackingNumber    string     `json:"tracking_number"    validate:"required,max=100"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// DeliverRequest payload.
type DeliverRequest struct {
	DeliveredAt *time.Time `json:"delivered_at"`
}

// ReturnRequest payload.
type ReturnRequest struct {
	ItemIndex         int                   `json:"item_index"         validate:"min=0"`
	Action            domain.ItemResolution `json:"action"             validate:"required,oneof=return replace"`
	Reason            string                `json:"reason"             validate:"required,max=1000"`
	Replacement       *ItemRequest          `json:"replacement"        validate:"omitempty"`
	EstimatedDelivery *time.Time            `json:"estimated_delivery"`
}

// ToDomain maps the payload into a domain item.
func (r ItemRequest) ToDomain() domain.Item {
	return domain.Item{
		Name:        r.Name,
		URL:         r.URL,
		Quantity:    r.Quantity,
		Price:       r.Price,
		Currency:    r.Currency,
		Size:        r.Size,
		Color:       r.Color,
		Description: r.Description,
		Images:      r.Images,
	}
}

func itemsToDomain(items []ItemRequest) []domain.Item {
	if items == nil {
		return nil
	}
	out := make([]domain.Item, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToDomain())
	}
	return out
}

// ToDomain maps the payload into a domain address.
func (r AddressRequest) ToDomain() domain.Address {
	return domain.Address{
		Name:       r.Name,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		Country:    r.Country,
		PostalCode: r.PostalCode,
		Phone:      r.Phone,
	}
}

// ToCommand builds the create command.
func (r CreateRequestRequest) ToCommand() workflow.CreateCommand {
	return workflow.CreateCommand{
		CustomerID: r.CustomerID,
		Items:      itemsToDomain(r.Items),
		Address:    r.ShippingAddress.ToDomain(),
		Notes:      r.Notes,
		Priority:   r.Priority,
	}
}

// ToCommand builds the modify command.
func (r ModifyRequestRequest) ToCommand() workflow.ModifyCommand {
	cmd := workflow.ModifyCommand{Items: itemsToDomain(r.Items), Notes: r.Notes}
	if r.ShippingAddress != nil {
		addr := r.ShippingAddress.ToDomain()
		cmd.Address = &addr
	}
	return cmd
}

// ToCommand builds the review command.
func (r ReviewRequest) ToCommand() workflow.ReviewCommand {
	cmd := workflow.ReviewCommand{
		Decision:        r.Decision,
		Comment:         r.Comment,
		RejectionReason: r.RejectionReason,
		Internal:        r.Internal,
	}
	for _, p := range r.ItemPrices {
		cmd.ItemPrices = append(cmd.ItemPrices, workflow.ItemPrice{ItemIndex: p.ItemIndex, Price: p.Price})
	}
	return cmd
}

// ToCommand builds the payment command.
func (r PaymentRequest) ToCommand() workflow.PaymentCommand {
	return workflow.PaymentCommand{Amount: r.Amount, Currency: r.Currency, Reference: r.Reference}
}

// ToCommand builds the purchase command.
func (r PurchaseRequest) ToCommand() workflow.PurchaseCommand {
	return workflow.PurchaseCommand{
		Supplier:            r.Supplier,
		SupplierOrderNumber: r.SupplierOrderNumber,
		Notes:               r.Notes,
	}
}

// ToCommand builds the quality control command.
func (r QualityControlRequest) ToCommand() workflow.QualityControlCommand {
	cmd := workflow.QualityControlCommand{Notes: r.Notes, Photos: r.Photos}
	for _, in := range r.Inspections {
		cmd.Inspections = append(cmd.Inspections, domain.ItemInspection{
			ItemIndex: in.ItemIndex,
			Condition: in.Condition,
			Notes:     in.Notes,
			Photos:    in.Photos,
		})
	}
	return cmd
}

// ToCommand builds the customer review command.
func (r CustomerReviewRequest) ToCommand() workflow.CustomerReviewCommand {
	cmd := workflow.CustomerReviewCommand{Decision: r.Decision, Comment: r.Comment}
	for _, d := range r.Items {
		cmd.Items = append(cmd.Items, domain.ItemDecision{ItemIndex: d.ItemIndex, Reason: d.Reason, Action: d.Action})
	}
	return cmd
}

// ToCommand builds the packing command.
func (r PackingRequest) ToCommand() workflow.PackingCommand {
	return workflow.PackingCommand{Choice: r.Choice}
}

// ToCommand builds the ship command.
func (r ShipRequest) ToCommand() workflow.ShipCommand {
	return workflow.ShipCommand{
		Carrier:           r.Carrier,
		TrackingNumber:    r.TrackingNumber,
		EstimatedDelivery: r.EstimatedDelivery,
	}
}

// ToCommand builds the deliver command.
func (r DeliverRequest) ToCommand() workflow.DeliverCommand {
	return workflow.DeliverCommand{DeliveredAt: r.DeliveredAt}
}

// ToCommand builds the return or replace command.
func (r ReturnRequest) ToCommand() workflow.ReturnCommand {
	cmd := workflow.ReturnCommand{
		ItemIndex:         r.ItemIndex,
		Action:            r.Action,
		Reason:            r.Reason,
		EstimatedDelivery: r.EstimatedDelivery,
	}
	if r.Replacement != nil {
		item := r.Replacement.ToDomain()
		cmd.Replacement = &item
	}
	return cmd
}

// RequestSummary is the list view of a request.
type RequestSummary struct {
	ID            string                 `json:"id"`
	RequestNumber string                 `json:"request_number"`
	CustomerID    string                 `json:"customer_id"`
	Status        domain.RequestStatus   `json:"status"`
	SubStatus     domain.SubStatus       `json:"sub_status,omitempty"`
	ReviewStatus  domain.ReviewStatus    `json:"review_status"`
	PaymentStatus domain.PaymentStatus   `json:"payment_status"`
	Priority      domain.RequestPriority `json:"priority"`
	TotalAmount   decimal.Decimal        `json:"total_amount"`
	Currency      string                 `json:"currency"`
	ItemCount     int                    `json:"item_count"`
	Version       int64                  `json:"version"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// RequestDetail is the full view of a request.
type RequestDetail struct {
	RequestSummary
	CustomerName    string                  `json:"customer_name"`
	CustomerEmail   string                  `json:"customer_email"`
	Items           []domain.Item           `json:"items"`
	Notes           string                  `json:"notes,omitempty"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
	Shipping        domain.Shipping         `json:"shipping"`
	Payment         *domain.PaymentRecord   `json:"payment,omitempty"`
	Purchase        *domain.PurchaseRecord  `json:"purchase,omitempty"`
	QualityControl  *domain.QualityControl  `json:"quality_control,omitempty"`
	CustomerReview  *domain.CustomerReview  `json:"customer_review,omitempty"`
	Packing         *domain.PackingRecord   `json:"packing,omitempty"`
	Returns         []domain.ReturnRecord   `json:"returns,omitempty"`
	ReviewComments  []domain.ReviewComment  `json:"review_comments"`
	History         []domain.HistoryEntry   `json:"history"`
}

// NewRequestSummary builds the list view.
func NewRequestSummary(req *domain.Request) RequestSummary {
	return RequestSummary{
		ID:            req.ID,
		RequestNumber: req.RequestNumber,
		CustomerID:    req.CustomerID,
		Status:        req.Status,
		SubStatus:     req.SubStatus,
		ReviewStatus:  req.ReviewStatus,
		PaymentStatus: req.PaymentStatus,
		Priority:      req.Priority,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		ItemCount:     len(req.Items),
		Version:       req.Version,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
}

// NewRequestDetail builds the detail view. Internal review comments are hidden from customers.
func NewRequestDetail(req *domain.Request, includeInternal bool) RequestDetail {
	comments := make([]domain.ReviewComment, 0, len(req.ReviewComments))
	for _, c := range req.ReviewComments {
		if c.Internal && !includeInternal {
			continue
		}
		comments = append(comments, c)
	}
	history := req.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	return RequestDetail{
		RequestSummary:  NewRequestSummary(req),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		Items:           req.Items,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		Shipping:        req.Shipping,
		Payment:         req.Payment,
		Purchase:        req.Purchase,
		QualityControl:  req.QualityControl,
		CustomerReview:  req.CustomerReview,
		Packing:         req.Packing,
		Returns:         req.Returns,
		ReviewComments:  comments,
		History:         history,
	}
}
