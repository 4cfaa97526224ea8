package domain

import "time"

// HistoryKind is the closed set of audit events, one per transition.
type HistoryKind string

const (
	HistoryCreated           HistoryKind = "CREATED"
	HistoryModified          HistoryKind = "MODIFIED"
	HistoryReviewed          HistoryKind = "REVIEWED"
	HistoryPaymentProcessed  HistoryKind = "PAYMENT_PROCESSED"
	HistoryPurchased         HistoryKind = "PURCHASED"
	HistoryQualityChecked    HistoryKind = "QUALITY_CHECKED"
	HistoryCustomerReviewed  HistoryKind = "CUSTOMER_REVIEWED"
	HistoryPackingChosen     HistoryKind = "PACKING_CHOSEN"
	HistoryShipped           HistoryKind = "SHIPPED"
	HistoryDelivered         HistoryKind = "DELIVERED"
	HistoryReturnReplacement HistoryKind = "RETURN_REPLACEMENT"
)

// HistoryEntry is an immutable audit trail entry.
type HistoryEntry struct {
	ModificationNumber int            `json:"modification_number"`
	Kind               HistoryKind    `json:"kind"`
	ActorKind          ActorKind      `json:"actor_kind"`
	ActorID            string         `json:"actor_id"`
	Previous           map[string]any `json:"previous,omitempty"`
	Current            map[string]any `json:"current,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// ReviewComment is a staff comment shown on the request thread.
type ReviewComment struct {
	AuthorID  string    `json:"author_id"`
	Comment   string    `json:"comment"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditCount is the number of audit records attached to the request.
func (r *Request) AuditCount() int {
	return len(r.History) + len(r.ReviewComments)
}
