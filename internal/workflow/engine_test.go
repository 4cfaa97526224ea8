package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

var (
	customer = &domain.User{ID: "cust-1", Name: "Ada", Email: "ada@example.com"}
	owner    = domain.CustomerActor("cust-1")
	manager  = domain.StaffActor("staff-1", domain.PermissionOrderManagement)
	finance  = domain.StaffActor("staff-2", domain.PermissionFinancialAccess)
)

func fixedEngine() *Engine {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewEngineWithClock(func() time.Time { return now })
}

func address() domain.Address {
	return domain.Address{Name: "Ada", Street: "1 Main St", City: "Springfield", Country: "US", PostalCode: "12345"}
}

func item(name string, qty int, price string) domain.Item {
	return domain.Item{
		Name:     name,
		URL:      "https://shop.example.com/" + name,
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
		Currency: "usd",
	}
}

// scenarioA creates the one-item request used throughout the scenarios.
func scenarioA(t *testing.T, e *Engine) *domain.Request {
	t.Helper()
	req, err := e.Create(owner, customer, CreateCommand{
		CustomerID: customer.ID,
		Items:      []domain.Item{item("shoes", 2, "50")},
		Address:    address(),
	})
	require.NoError(t, err)
	return req
}

func apply(t *testing.T, e *Engine, req *domain.Request, actor domain.Actor, cmd Command) {
	t.Helper()
	require.NoError(t, e.Apply(req, actor, cmd))
}

func approved(t *testing.T, e *Engine) *domain.Request {
	req := scenarioA(t, e)
	apply(t, e, req, manager, ReviewCommand{Decision: domain.ReviewStatusApproved, Comment: "looks good"})
	return req
}

func paid(t *testing.T, e *Engine) *domain.Request {
	req := approved(t, e)
	apply(t, e, req, finance, PaymentCommand{Amount: decimal.NewFromInt(100), Currency: "USD"})
	return req
}

func qualityChecked(t *testing.T, e *Engine, items ...domain.Item) *domain.Request {
	t.Helper()
	if len(items) == 0 {
		items = []domain.Item{item("shoes", 2, "50")}
	}
	req, err := e.Create(owner, customer, CreateCommand{CustomerID: customer.ID, Items: items, Address: address()})
	require.NoError(t, err)
	apply(t, e, req, manager, ReviewCommand{Decision: domain.ReviewStatusApproved})
	apply(t, e, req, finance, PaymentCommand{Amount: req.TotalAmount, Currency: "USD"})
	apply(t, e, req, manager, PurchaseCommand{Supplier: "Shop"})
	inspections := make([]domain.ItemInspection, len(req.Items))
	for i := range req.Items {
		inspections[i] = domain.ItemInspection{ItemIndex: i, Condition: domain.ConditionGood}
	}
	apply(t, e, req, manager, QualityControlCommand{Inspections: inspections})
	return req
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestScenarioA_CreateComputesTotal(t *testing.T) {
	req := scenarioA(t, fixedEngine())

	assert.True(t, req.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "USD", req.Currency)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, domain.ReviewStatusPending, req.ReviewStatus)
	assert.Equal(t, domain.PaymentStatusPending, req.PaymentStatus)
	assert.Equal(t, domain.SubStatusAwaitingReview, req.SubStatus)
	assert.Equal(t, domain.RequestPriorityMedium, req.Priority)
	assert.Equal(t, "Ada", req.CustomerName)
	assert.Regexp(t, `^BFM-[0-9A-F]{8}$`, req.RequestNumber)
	require.Len(t, req.History, 1)
	assert.Equal(t, domain.HistoryCreated, req.History[0].Kind)
	assert.Equal(t, 1, req.History[0].ModificationNumber)
}

func TestCreateValidation(t *testing.T) {
	e := fixedEngine()
	cases := []struct {
		name string
		cmd  CreateCommand
		code string
	}{
		{"no items", CreateCommand{Address: address()}, apperrors.CodeValidation},
		{"missing name", CreateCommand{Items: []domain.Item{item(" ", 1, "1")}, Address: address()}, apperrors.CodeValidation},
		{"bad url", CreateCommand{Items: []domain.Item{{Name: "x", URL: "not a url", Quantity: 1, Currency: "USD"}}, Address: address()}, apperrors.CodeValidation},
		{"ftp url", CreateCommand{Items: []domain.Item{{Name: "x", URL: "ftp://host/x", Quantity: 1, Currency: "USD"}}, Address: address()}, apperrors.CodeValidation},
		{"zero quantity", CreateCommand{Items: []domain.Item{item("x", 0, "1")}, Address: address()}, apperrors.CodeValidation},
		{"negative price", CreateCommand{Items: []domain.Item{item("x", 1, "-1")}, Address: address()}, apperrors.CodeValidation},
		{"mixed currency", CreateCommand{Items: []domain.Item{item("x", 1, "1"), {Name: "y", URL: "https://a.b/y", Quantity: 1, Currency: "EUR"}}, Address: address()}, apperrors.CodeValidation},
		{"incomplete address", CreateCommand{Items: []domain.Item{item("x", 1, "1")}, Address: domain.Address{Name: "Ada", City: "X"}}, apperrors.CodeValidation},
		{"blank address fields", CreateCommand{Items: []domain.Item{item("x", 1, "1")}, Address: domain.Address{Name: " ", Street: " ", City: " ", Country: " ", PostalCode: " "}}, apperrors.CodeValidation},
		{"bad priority", CreateCommand{Items: []domain.Item{item("x", 1, "1")}, Address: address(), Priority: "urgent"}, apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := e.Create(owner, customer, tc.cmd)
			requireCode(t, err, tc.code)
			assert.Nil(t, req)
		})
	}
}

func TestCreateUnknownCustomer(t *testing.T) {
	_, err := fixedEngine().Create(manager, nil, CreateCommand{CustomerID: "ghost", Items: []domain.Item{item("x", 1, "1")}, Address: address()})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestScenarioB_Approve(t *testing.T) {
	req := approved(t, fixedEngine())

	assert.Equal(t, domain.RequestStatusApproved, req.Status)
	assert.Equal(t, domain.ReviewStatusApproved, req.ReviewStatus)
	require.Len(t, req.ReviewComments, 1)
	assert.Equal(t, "looks good", req.ReviewComments[0].Comment)
	assert.Equal(t, domain.HistoryReviewed, req.History[len(req.History)-1].Kind)
}

func TestApproveRepricesItems(t *testing.T) {
	e := fixedEngine()
	req := scenarioA(t, e)

	apply(t, e, req, manager, ReviewCommand{
		Decision:   domain.ReviewStatusApproved,
		ItemPrices: []ItemPrice{{ItemIndex: 0, Price: decimal.RequireFromString("42.50")}},
	})
	assert.True(t, req.TotalAmount.Equal(decimal.RequireFromString("85")))

	req = scenarioA(t, e)
	err := e.Apply(req, manager, ReviewCommand{
		Decision:   domain.ReviewStatusApproved,
		ItemPrices: []ItemPrice{{ItemIndex: 3, Price: decimal.NewFromInt(1)}},
	})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestScenarioC_PaymentMatchingTotal(t *testing.T) {
	req := paid(t, fixedEngine())

	assert.Equal(t, domain.PaymentStatusPaid, req.PaymentStatus)
	assert.Equal(t, domain.RequestStatusInProgress, req.Status)
	assert.Equal(t, domain.SubStatusPaymentCompleted, req.SubStatus)
	require.NotNil(t, req.Payment)
	assert.Equal(t, finance.ID, req.Payment.StaffID)
}

func TestScenarioD_PaymentMismatch(t *testing.T) {
	e := fixedEngine()
	req := approved(t, e)
	before := req.Clone()

	err := e.Apply(req.Clone(), finance, PaymentCommand{Amount: decimal.NewFromInt(50), Currency: "USD"})
	requireCode(t, err, apperrors.CodeValidation)

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "100", de.Details["expected_amount"])
	assert.Equal(t, before, req)
	assert.Equal(t, domain.RequestStatusApproved, req.Status)
	assert.Equal(t, domain.PaymentStatusPending, req.PaymentStatus)
}

func TestScenarioE_Reject(t *testing.T) {
	e := fixedEngine()
	req := scenarioA(t, e)

	apply(t, e, req, manager, ReviewCommand{Decision: domain.ReviewStatusRejected, RejectionReason: "invalid URL"})

	assert.Equal(t, domain.RequestStatusCancelled, req.Status)
	assert.Equal(t, domain.ReviewStatusRejected, req.ReviewStatus)
	assert.Equal(t, "invalid URL", req.RejectionReason)
	require.Len(t, req.ReviewComments, 1)
	assert.Equal(t, "invalid URL", req.ReviewComments[0].Comment)
}

func TestRejectRequiresReasonAndAllowedFromApproved(t *testing.T) {
	e := fixedEngine()

	err := e.Apply(scenarioA(t, e), manager, ReviewCommand{Decision: domain.ReviewStatusRejected})
	requireCode(t, err, apperrors.CodeValidation)

	req := approved(t, e)
	apply(t, e, req, manager, ReviewCommand{Decision: domain.ReviewStatusRejected, RejectionReason: "out of stock"})
	assert.Equal(t, domain.RequestStatusCancelled, req.Status)

	err = e.Apply(paid(t, e), manager, ReviewCommand{Decision: domain.ReviewStatusRejected, RejectionReason: "late"})
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestApproveTwiceIsInvalidTransition(t *testing.T) {
	e := fixedEngine()
	err := e.Apply(approved(t, e), manager, ReviewCommand{Decision: domain.ReviewStatusApproved})
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestScenarioF_DeleteNonPending(t *testing.T) {
	e := fixedEngine()
	req := approved(t, e)

	err := e.Apply(req, owner, DeleteCommand{})
	requireCode(t, err, apperrors.CodeValidation)

	assert.NoError(t, e.Apply(scenarioA(t, e), owner, DeleteCommand{}))
}

func TestNeedsModificationResubmission(t *testing.T) {
	e := fixedEngine()
	req := scenarioA(t, e)

	err := e.Apply(req.Clone(), manager, ReviewCommand{Decision: domain.ReviewStatusNeedsModification})
	requireCode(t, err, apperrors.CodeValidation)

	apply(t, e, req, manager, ReviewCommand{Decision: domain.ReviewStatusNeedsModification, Comment: "pick a size"})
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, domain.ReviewStatusNeedsModification, req.ReviewStatus)

	shoes := item("shoes", 3, "50")
	shoes.Size = "42"
	apply(t, e, req, owner, ModifyCommand{Items: []domain.Item{shoes}})

	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, domain.ReviewStatusPending, req.ReviewStatus)
	assert.Equal(t, domain.SubStatusResubmitted, req.SubStatus)
	assert.True(t, req.TotalAmount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, domain.HistoryModified, req.History[len(req.History)-1].Kind)

	apply(t, e, req, manager, ReviewCommand{Decision: domain.ReviewStatusApproved})
	assert.Equal(t, domain.RequestStatusApproved, req.Status)
}

func TestModifyValidation(t *testing.T) {
	e := fixedEngine()

	requireCode(t, e.Apply(scenarioA(t, e), owner, ModifyCommand{}), apperrors.CodeValidation)

	incomplete := domain.Address{Name: "Ada"}
	requireCode(t, e.Apply(scenarioA(t, e), owner, ModifyCommand{Address: &incomplete}), apperrors.CodeValidation)

	notes := "  gift wrap  "
	req := scenarioA(t, e)
	apply(t, e, req, owner, ModifyCommand{Notes: &notes})
	assert.Equal(t, "gift wrap", req.Notes)
	assert.Equal(t, domain.SubStatusAwaitingReview, req.SubStatus)

	requireCode(t, e.Apply(approved(t, e), owner, ModifyCommand{Notes: &notes}), apperrors.CodeInvalidTransition)
}

func TestFulfilmentHappyPath(t *testing.T) {
	e := fixedEngine()
	req := paid(t, e)

	err := e.Apply(req.Clone(), manager, PurchaseCommand{})
	requireCode(t, err, apperrors.CodeValidation)
	requireCode(t, e.Apply(req.Clone(), manager, QualityControlCommand{Inspections: []domain.ItemInspection{{ItemIndex: 0, Condition: domain.ConditionGood}}}), apperrors.CodeInvalidTransition)

	apply(t, e, req, manager, PurchaseCommand{Supplier: "Shop", SupplierOrderNumber: "SO-1"})
	assert.Equal(t, domain.SubStatusPurchased, req.SubStatus)
	assert.Equal(t, domain.RequestStatusInProgress, req.Status)

	requireCode(t, e.Apply(req.Clone(), owner, CustomerReviewCommand{Decision: domain.CustomerDecisionApproved}), apperrors.CodeInvalidTransition)

	apply(t, e, req, manager, QualityControlCommand{
		Inspections: []domain.ItemInspection{{ItemIndex: 0, Condition: domain.ConditionExcellent, Photos: []string{"p1.jpg"}}},
		Notes:       "all good",
	})
	assert.Equal(t, domain.SubStatusQualityChecked, req.SubStatus)
	assert.Equal(t, domain.ConditionExcellent, req.Items[0].Condition)

	requireCode(t, e.Apply(req.Clone(), owner, PackingCommand{Choice: domain.PackingPackNow}), apperrors.CodeInvalidTransition)

	apply(t, e, req, owner, CustomerReviewCommand{Decision: domain.CustomerDecisionApproved})
	assert.Equal(t, domain.SubStatusCustomerApproved, req.SubStatus)

	requireCode(t, e.Apply(req.Clone(), owner, PackingCommand{Choice: "later"}), apperrors.CodeValidation)
	apply(t, e, req, owner, PackingCommand{Choice: domain.PackingWaitInBox})
	apply(t, e, req, manager, PackingCommand{Choice: domain.PackingPackNow})
	assert.Equal(t, domain.PackingPackNow, req.Packing.Choice)
	assert.Equal(t, domain.ActorStaff, req.Packing.ActorKind)
	assert.Equal(t, domain.SubStatusPackingSelected, req.SubStatus)

	requireCode(t, e.Apply(req.Clone(), manager, ShipCommand{Carrier: "UPS"}), apperrors.CodeValidation)
	eta := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	apply(t, e, req, manager, ShipCommand{Carrier: "UPS", TrackingNumber: "1Z", EstimatedDelivery: &eta})
	assert.Equal(t, domain.RequestStatusShipped, req.Status)
	assert.Equal(t, eta, *req.Shipping.EstimatedDelivery)
	assert.NotNil(t, req.Shipping.ShippedAt)

	apply(t, e, req, manager, DeliverCommand{})
	assert.Equal(t, domain.RequestStatusDelivered, req.Status)
	require.NotNil(t, req.Shipping.ActualDelivery)

	kinds := make([]domain.HistoryKind, 0, len(req.History))
	for i, h := range req.History {
		assert.Equal(t, i+1, h.ModificationNumber)
		kinds = append(kinds, h.Kind)
	}
	assert.Equal(t, []domain.HistoryKind{
		domain.HistoryCreated,
		domain.HistoryReviewed,
		domain.HistoryPaymentProcessed,
		domain.HistoryPurchased,
		domain.HistoryQualityChecked,
		domain.HistoryCustomerReviewed,
		domain.HistoryPackingChosen,
		domain.HistoryPackingChosen,
		domain.HistoryShipped,
		domain.HistoryDelivered,
	}, kinds)
}

func TestQualityControlValidation(t *testing.T) {
	e := fixedEngine()
	req := paid(t, e)
	apply(t, e, req, manager, PurchaseCommand{Supplier: "Shop"})

	cases := map[string]QualityControlCommand{
		"empty":         {},
		"bad index":     {Inspections: []domain.ItemInspection{{ItemIndex: 5, Condition: domain.ConditionGood}}},
		"bad condition": {Inspections: []domain.ItemInspection{{ItemIndex: 0, Condition: "meh"}}},
		"duplicate": {Inspections: []domain.ItemInspection{
			{ItemIndex: 0, Condition: domain.ConditionGood},
			{ItemIndex: 0, Condition: domain.ConditionFair},
		}},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			requireCode(t, e.Apply(req.Clone(), manager, cmd), apperrors.CodeValidation)
		})
	}
}

func TestQualityControlMergesInspections(t *testing.T) {
	e := fixedEngine()
	req := qualityChecked(t, e, item("a", 1, "10"), item("b", 1, "20"))

	apply(t, e, req, manager, QualityControlCommand{
		Inspections: []domain.ItemInspection{{ItemIndex: 1, Condition: domain.ConditionDamaged}},
	})
	require.Len(t, req.QualityControl.Inspections, 2)
	assert.Equal(t, domain.ConditionGood, req.Items[0].Condition)
	assert.Equal(t, domain.ConditionDamaged, req.Items[1].Condition)
}

func TestCustomerRejectionAndReplacementLoop(t *testing.T) {
	e := fixedEngine()
	req := qualityChecked(t, e, item("a", 1, "10"), item("b", 2, "20"))

	requireCode(t, e.Apply(req.Clone(), owner, CustomerReviewCommand{Decision: domain.CustomerDecisionRejected}), apperrors.CodeValidation)
	requireCode(t, e.Apply(req.Clone(), owner, CustomerReviewCommand{
		Decision: domain.CustomerDecisionRejected,
		Items:    []domain.ItemDecision{{ItemIndex: 1, Action: domain.RequestedReplace}},
	}), apperrors.CodeValidation)

	apply(t, e, req, owner, CustomerReviewCommand{
		Decision: domain.CustomerDecisionNeedsReplacement,
		Items:    []domain.ItemDecision{{ItemIndex: 1, Reason: "wrong colour", Action: domain.RequestedReplace}},
	})
	assert.Equal(t, domain.SubStatusReturnRequested, req.SubStatus)
	assert.True(t, req.Items[1].Flagged())
	assert.False(t, req.Items[0].Flagged())

	requireCode(t, e.Apply(req.Clone(), manager, ReturnCommand{ItemIndex: 0, Action: domain.ResolutionReturn, Reason: "x"}), apperrors.CodeValidation)
	requireCode(t, e.Apply(req.Clone(), manager, ReturnCommand{ItemIndex: 1, Action: domain.ResolutionReplace}), apperrors.CodeValidation)
	requireCode(t, e.Apply(req.Clone(), manager, ReturnCommand{ItemIndex: 1, Action: "refund", Reason: "x"}), apperrors.CodeValidation)

	replacement := item("b-blue", 2, "22")
	eta := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	apply(t, e, req, manager, ReturnCommand{
		ItemIndex:         1,
		Action:            domain.ResolutionReplace,
		Reason:            "colour mismatch",
		Replacement:       &replacement,
		EstimatedDelivery: &eta,
	})

	assert.Equal(t, "b-blue", req.Items[1].Name)
	assert.Equal(t, domain.ResolutionReplace, req.Items[1].Resolution)
	assert.Empty(t, req.Items[1].Condition)
	assert.True(t, req.TotalAmount.Equal(decimal.NewFromInt(54)))
	assert.True(t, req.TotalAmount.Equal(domain.SumItems(req.Items)))
	assert.Equal(t, domain.SubStatusPaymentCompleted, req.SubStatus)
	require.Len(t, req.Returns, 1)
	assert.Equal(t, eta, *req.Returns[0].EstimatedDelivery)

	apply(t, e, req, manager, PurchaseCommand{Supplier: "Shop"})
	apply(t, e, req, manager, QualityControlCommand{Inspections: []domain.ItemInspection{{ItemIndex: 1, Condition: domain.ConditionGood}}})
	apply(t, e, req, owner, CustomerReviewCommand{Decision: domain.CustomerDecisionApproved})
	assert.Equal(t, domain.SubStatusCustomerApproved, req.SubStatus)
}

func TestReturnAllItemsRefunds(t *testing.T) {
	e := fixedEngine()
	req := qualityChecked(t, e, item("a", 1, "10"), item("b", 1, "20"))

	apply(t, e, req, owner, CustomerReviewCommand{
		Decision: domain.CustomerDecisionRejected,
		Items: []domain.ItemDecision{
			{ItemIndex: 0, Reason: "broken", Action: domain.RequestedRefund},
			{ItemIndex: 1, Reason: "broken", Action: domain.RequestedReturn},
		},
	})

	apply(t, e, req, manager, ReturnCommand{ItemIndex: 0, Action: domain.ResolutionReturn, Reason: "damaged"})
	assert.Equal(t, domain.SubStatusReturnRequested, req.SubStatus)
	assert.Equal(t, domain.PaymentStatusPaid, req.PaymentStatus)

	apply(t, e, req, manager, ReturnCommand{ItemIndex: 1, Action: domain.ResolutionReturn, Reason: "damaged"})
	assert.Equal(t, domain.SubStatusReturned, req.SubStatus)
	assert.Equal(t, domain.PaymentStatusRefunded, req.PaymentStatus)

	requireCode(t, e.Apply(req.Clone(), manager, ReturnCommand{ItemIndex: 1, Action: domain.ResolutionReturn, Reason: "again"}), apperrors.CodeValidation)
}

func TestShipRequiresAcceptedPaidOrder(t *testing.T) {
	e := fixedEngine()
	ship := ShipCommand{Carrier: "UPS", TrackingNumber: "1Z"}

	t.Run("straight after payment", func(t *testing.T) {
		req := paid(t, e)
		before := req.Clone()
		requireCode(t, e.Apply(req, manager, ship), apperrors.CodeInvalidTransition)
		assert.Equal(t, before, req)
		assert.Nil(t, req.Shipping.ShippedAt)
	})

	t.Run("purchased but not inspected", func(t *testing.T) {
		req := paid(t, e)
		apply(t, e, req, manager, PurchaseCommand{Supplier: "Shop"})
		requireCode(t, e.Apply(req.Clone(), manager, ship), apperrors.CodeInvalidTransition)
	})

	t.Run("inspected but not accepted", func(t *testing.T) {
		req := qualityChecked(t, e)
		requireCode(t, e.Apply(req.Clone(), manager, ship), apperrors.CodeInvalidTransition)
	})

	t.Run("every item returned", func(t *testing.T) {
		req := qualityChecked(t, e)
		apply(t, e, req, owner, CustomerReviewCommand{
			Decision: domain.CustomerDecisionRejected,
			Items:    []domain.ItemDecision{{ItemIndex: 0, Reason: "broken", Action: domain.RequestedRefund}},
		})
		apply(t, e, req, manager, ReturnCommand{ItemIndex: 0, Action: domain.ResolutionReturn, Reason: "broken"})
		require.Equal(t, domain.PaymentStatusRefunded, req.PaymentStatus)

		before := req.Clone()
		requireCode(t, e.Apply(req, manager, ship), apperrors.CodeInvalidTransition)
		assert.Equal(t, before, req)
		assert.Equal(t, domain.RequestStatusInProgress, req.Status)
		requireCode(t, e.Apply(req.Clone(), manager, DeliverCommand{}), apperrors.CodeInvalidTransition)
	})

	t.Run("accepted without packing choice", func(t *testing.T) {
		req := qualityChecked(t, e)
		apply(t, e, req, owner, CustomerReviewCommand{Decision: domain.CustomerDecisionApproved})
		apply(t, e, req, manager, ship)
		assert.Equal(t, domain.RequestStatusShipped, req.Status)
	})
}

func TestReplacementAfterDelivery(t *testing.T) {
	e := fixedEngine()
	req := qualityChecked(t, e)
	apply(t, e, req, owner, CustomerReviewCommand{Decision: domain.CustomerDecisionApproved})
	apply(t, e, req, owner, PackingCommand{Choice: domain.PackingPackNow})
	apply(t, e, req, manager, ShipCommand{Carrier: "DHL", TrackingNumber: "T1"})
	apply(t, e, req, manager, DeliverCommand{})

	apply(t, e, req, owner, CustomerReviewCommand{
		Decision: domain.CustomerDecisionNeedsReplacement,
		Items:    []domain.ItemDecision{{ItemIndex: 0, Reason: "torn", Action: domain.RequestedReplace}},
	})
	apply(t, e, req, manager, ReturnCommand{ItemIndex: 0, Action: domain.ResolutionReplace, Reason: "torn seam"})

	assert.Equal(t, domain.RequestStatusDelivered, req.Status)
	assert.Equal(t, domain.SubStatusReplacementPending, req.SubStatus)
}

// Every transition outside the allowed set fails with INVALID_TRANSITION and leaves the request untouched.
func TestStateMachineSoundness(t *testing.T) {
	e := fixedEngine()
	commands := []Command{
		ModifyCommand{Notes: new(string)},
		ReviewCommand{Decision: domain.ReviewStatusApproved},
		PaymentCommand{Amount: decimal.NewFromInt(100)},
		PurchaseCommand{Supplier: "Shop"},
		QualityControlCommand{Inspections: []domain.ItemInspection{{ItemIndex: 0, Condition: domain.ConditionGood}}},
		CustomerReviewCommand{Decision: domain.CustomerDecisionApproved},
		PackingCommand{Choice: domain.PackingPackNow},
		ShipCommand{Carrier: "UPS", TrackingNumber: "1Z"},
		DeliverCommand{},
		ReturnCommand{ItemIndex: 0, Action: domain.ResolutionReturn, Reason: "x"},
	}
	statuses := []domain.RequestStatus{
		domain.RequestStatusPending,
		domain.RequestStatusApproved,
		domain.RequestStatusInProgress,
		domain.RequestStatusShipped,
		domain.RequestStatusDelivered,
		domain.RequestStatusCancelled,
	}

	for _, status := range statuses {
		for _, cmd := range commands {
			if AllowedFrom(cmd.Transition(), status) {
				continue
			}
			t.Run(string(status)+"/"+string(cmd.Transition()), func(t *testing.T) {
				req := scenarioA(t, e)
				req.Status = status
				before := req.Clone()

				err := e.Apply(req, manager, cmd)
				requireCode(t, err, apperrors.CodeInvalidTransition)
				assert.Equal(t, before, req)
			})
		}
	}
}

func TestAuditOnlyGrowsAndTotalMatches(t *testing.T) {
	e := fixedEngine()
	req := qualityChecked(t, e, item("a", 3, "9.99"), item("b", 1, "0.01"))
	last := req.AuditCount()

	steps := []struct {
		actor domain.Actor
		cmd   Command
	}{
		{owner, CustomerReviewCommand{Decision: domain.CustomerDecisionRejected, Items: []domain.ItemDecision{{ItemIndex: 0, Reason: "r", Action: domain.RequestedReplace}}}},
		{manager, ReturnCommand{ItemIndex: 0, Action: domain.ResolutionReplace, Reason: "r"}},
		{manager, PurchaseCommand{Supplier: "Shop"}},
		{manager, QualityControlCommand{Inspections: []domain.ItemInspection{{ItemIndex: 0, Condition: domain.ConditionGood}}}},
		{owner, CustomerReviewCommand{Decision: domain.CustomerDecisionApproved}},
		{owner, PackingCommand{Choice: domain.PackingPackNow}},
		{manager, ShipCommand{Carrier: "UPS", TrackingNumber: "1Z"}},
	}
	for _, step := range steps {
		history := append([]domain.HistoryEntry(nil), req.History...)
		apply(t, e, req, step.actor, step.cmd)

		assert.Equal(t, last+1, req.AuditCount(), "step %s", step.cmd.Transition())
		assert.Equal(t, history, req.History[:len(history)])
		assert.True(t, req.TotalAmount.Equal(domain.SumItems(req.Items)))
		last = req.AuditCount()
	}
}
