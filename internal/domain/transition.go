package domain

// Transition names a permission-gated operation on a request.
type Transition string

const (
	TransitionCreate          Transition = "create"
	TransitionModify          Transition = "modify"
	TransitionReview          Transition = "review"
	TransitionProcessPayment  Transition = "process_payment"
	TransitionMarkPurchased   Transition = "mark_purchased"
	TransitionQualityControl  Transition = "quality_control"
	TransitionCustomerReview  Transition = "customer_review"
	TransitionPackingChoice   Transition = "packing_choice"
	TransitionShip            Transition = "ship"
	TransitionDeliver         Transition = "deliver"
	TransitionReturnOrReplace Transition = "return_replace"
	TransitionDelete          Transition = "delete"
)

// AllTransitions lists every transition in table order.
var AllTransitions = []Transition{
	TransitionCreate,
	TransitionModify,
	TransitionReview,
	TransitionProcessPayment,
	TransitionMarkPurchased,
	TransitionQualityControl,
	TransitionCustomerReview,
	TransitionPackingChoice,
	TransitionShip,
	TransitionDeliver,
	TransitionReturnOrReplace,
	TransitionDelete,
}
