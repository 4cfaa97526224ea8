package workflow

import (
	"strings"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

func (e *Engine) modify(req *domain.Request, actor domain.Actor, cmd ModifyCommand) error {
	if cmd.Items == nil && cmd.Address == nil && cmd.Notes == nil {
		return apperrors.NewValidationError("nothing to modify", nil)
	}
	previous := map[string]any{
		"total_amount":  req.TotalAmount.String(),
		"item_count":    len(req.Items),
		"review_status": req.ReviewStatus,
	}
	if cmd.Items != nil {
		items, currency, err := normalizeItems(cmd.Items)
		if err != nil {
			return err
		}
		req.Items = items
		req.Currency = currency
		req.RecalculateTotal()
	}
	if cmd.Address != nil {
		address := trimAddress(*cmd.Address)
		if !address.Complete() {
			return apperrors.NewValidationError("shipping address incomplete", nil)
		}
		req.Shipping.Address = address
	}
	if cmd.Notes != nil {
		req.Notes = strings.TrimSpace(*cmd.Notes)
	}
	// An edit never advances the request; it only re-queues a sent-back request for review.
	if req.ReviewStatus == domain.ReviewStatusNeedsModification {
		req.ReviewStatus = domain.ReviewStatusPending
		req.SubStatus = domain.SubStatusResubmitted
	}
	e.appendHistory(req, actor, domain.HistoryModified, previous, map[string]any{
		"total_amount":  req.TotalAmount.String(),
		"item_count":    len(req.Items),
		"review_status": req.ReviewStatus,
	})
	return nil
}

func (e *Engine) review(req *domain.Request, actor domain.Actor, cmd ReviewCommand) error {
	previous := map[string]any{
		"status":        req.Status,
		"review_status": req.ReviewStatus,
		"total_amount":  req.TotalAmount.String(),
	}
	switch cmd.Decision {
	case domain.ReviewStatusApproved:
		if req.Status != domain.RequestStatusPending {
			return invalidTransition(domain.TransitionReview, req)
		}
		for _, p := range cmd.ItemPrices {
			if err := checkItemIndex(req, p.ItemIndex); err != nil {
				return err
			}
			if p.Price.IsNegative() {
				return itemError(p.ItemIndex, "price", "item price cannot be negative")
			}
			req.Items[p.ItemIndex].Price = p.Price
		}
		req.RecalculateTotal()
		req.Status = domain.RequestStatusApproved
		req.SubStatus = ""
		req.ReviewStatus = domain.ReviewStatusApproved
	case domain.ReviewStatusRejected:
		reason := strings.TrimSpace(cmd.RejectionReason)
		if reason == "" {
			return apperrors.NewValidationError("rejection reason is required", map[string]any{"field": "rejection_reason"})
		}
		req.Status = domain.RequestStatusCancelled
		req.SubStatus = ""
		req.ReviewStatus = domain.ReviewStatusRejected
		req.RejectionReason = reason
		if strings.TrimSpace(cmd.Comment) == "" {
			cmd.Comment = reason
		}
	case domain.ReviewStatusNeedsModification:
		if req.Status != domain.RequestStatusPending {
			return invalidTransition(domain.TransitionReview, req)
		}
		if strings.TrimSpace(cmd.Comment) == "" {
			return apperrors.NewValidationError("comment is required when requesting modification", map[string]any{"field": "comment"})
		}
		req.ReviewStatus = domain.ReviewStatusNeedsModification
		req.SubStatus = domain.SubStatusAwaitingReview
	default:
		return apperrors.NewValidationError("invalid review decision", map[string]any{"decision": cmd.Decision})
	}

	e.appendComment(req, actor, cmd.Comment, cmd.Internal)
	e.appendHistory(req, actor, domain.HistoryReviewed, previous, map[string]any{
		"status":           req.Status,
		"review_status":    req.ReviewStatus,
		"total_amount":     req.TotalAmount.String(),
		"rejection_reason": req.RejectionReason,
	})
	return nil
}

func (e *Engine) processPayment(req *domain.Request, actor domain.Actor, cmd PaymentCommand) error {
	if err := Reconcile(req, cmd.Amount, cmd.Currency); err != nil {
		return err
	}
	previous := map[string]any{
		"status":         req.Status,
		"payment_status": req.PaymentStatus,
	}
	req.RecalculateTotal()
	req.Payment = &domain.PaymentRecord{
		Amount:    cmd.Amount,
		Currency:  req.Currency,
		Reference: strings.TrimSpace(cmd.Reference),
		PaidAt:    e.now(),
		StaffID:   actor.ID,
	}
	req.PaymentStatus = domain.PaymentStatusPaid
	req.Status = domain.RequestStatusInProgress
	req.SubStatus = domain.SubStatusPaymentCompleted
	e.appendHistory(req, actor, domain.HistoryPaymentProcessed, previous, map[string]any{
		"status":         req.Status,
		"payment_status": req.PaymentStatus,
		"amount":         cmd.Amount.String(),
		"currency":       req.Currency,
	})
	return nil
}

func (e *Engine) markPurchased(req *domain.Request, actor domain.Actor, cmd PurchaseCommand) error {
	if req.SubStatus != domain.SubStatusPaymentCompleted {
		return invalidTransition(domain.TransitionMarkPurchased, req)
	}
	supplier := strings.TrimSpace(cmd.Supplier)
	if supplier == "" {
		return apperrors.NewValidationError("supplier is required", map[string]any{"field": "supplier"})
	}
	previous := map[string]any{"sub_status": req.SubStatus}
	req.Purchase = &domain.PurchaseRecord{
		Supplier:            supplier,
		SupplierOrderNumber: strings.TrimSpace(cmd.SupplierOrderNumber),
		Notes:               strings.TrimSpace(cmd.Notes),
		PurchasedAt:         e.now(),
		StaffID:             actor.ID,
	}
	req.SubStatus = domain.SubStatusPurchased
	e.appendHistory(req, actor, domain.HistoryPurchased, previous, map[string]any{
		"sub_status": req.SubStatus,
		"supplier":   supplier,
	})
	return nil
}

func (e *Engine) qualityControl(req *domain.Request, actor domain.Actor, cmd QualityControlCommand) error {
	if req.SubStatus != domain.SubStatusPurchased && req.SubStatus != domain.SubStatusQualityChecked {
		return invalidTransition(domain.TransitionQualityControl, req)
	}
	if len(cmd.Inspections) == 0 {
		return apperrors.NewValidationError("at least one item inspection is required", nil)
	}
	seen := make(map[int]struct{}, len(cmd.Inspections))
	for _, in := range cmd.Inspections {
		if err := checkItemIndex(req, in.ItemIndex); err != nil {
			return err
		}
		if _, dup := seen[in.ItemIndex]; dup {
			return itemError(in.ItemIndex, "item_index", "item inspected more than once")
		}
		seen[in.ItemIndex] = struct{}{}
		if !in.Condition.Valid() {
			return itemError(in.ItemIndex, "condition", "invalid item condition")
		}
	}

	previous := map[string]any{"sub_status": req.SubStatus}
	qc := &domain.QualityControl{
		Notes:     strings.TrimSpace(cmd.Notes),
		Photos:    append([]string(nil), cmd.Photos...),
		CheckedBy: actor.ID,
		CheckedAt: e.now(),
	}
	// Earlier inspections of items not covered by this pass are carried over.
	if req.QualityControl != nil {
		for _, old := range req.QualityControl.Inspections {
			if _, replaced := seen[old.ItemIndex]; !replaced {
				qc.Inspections = append(qc.Inspections, old)
			}
		}
	}
	conditions := make(map[string]any, len(cmd.Inspections))
	for _, in := range cmd.Inspections {
		in.Notes = strings.TrimSpace(in.Notes)
		in.Photos = append([]string(nil), in.Photos...)
		qc.Inspections = append(qc.Inspections, in)
		req.Items[in.ItemIndex].Condition = in.Condition
		conditions[req.Items[in.ItemIndex].Name] = in.Condition
	}
	req.QualityControl = qc
	req.SubStatus = domain.SubStatusQualityChecked
	e.appendHistory(req, actor, domain.HistoryQualityChecked, previous, map[string]any{
		"sub_status": req.SubStatus,
		"conditions": conditions,
	})
	return nil
}

func (e *Engine) customerReview(req *domain.Request, actor domain.Actor, cmd CustomerReviewCommand) error {
	if req.Status == domain.RequestStatusInProgress && req.SubStatus != domain.SubStatusQualityChecked {
		return invalidTransition(domain.TransitionCustomerReview, req)
	}
	if req.QualityControl == nil {
		return invalidTransition(domain.TransitionCustomerReview, req)
	}

	previous := map[string]any{"sub_status": req.SubStatus}
	review := &domain.CustomerReview{
		Decision:   cmd.Decision,
		Comment:    strings.TrimSpace(cmd.Comment),
		ReviewedAt: e.now(),
	}
	switch cmd.Decision {
	case domain.CustomerDecisionApproved:
		req.SubStatus = domain.SubStatusCustomerApproved
	case domain.CustomerDecisionRejected, domain.CustomerDecisionNeedsReplacement:
		if len(cmd.Items) == 0 {
			return apperrors.NewValidationError("rejected items are required", map[string]any{"field": "items"})
		}
		for _, d := range cmd.Items {
			if err := checkItemIndex(req, d.ItemIndex); err != nil {
				return err
			}
			if req.Items[d.ItemIndex].Resolution == domain.ResolutionReturn {
				return itemError(d.ItemIndex, "item_index", "item was already returned")
			}
			d.Reason = strings.TrimSpace(d.Reason)
			if d.Reason == "" {
				return itemError(d.ItemIndex, "reason", "a reason is required for each rejected item")
			}
			switch d.Action {
			case domain.RequestedReturn, domain.RequestedReplace, domain.RequestedRefund:
			default:
				return itemError(d.ItemIndex, "action", "requested action must be return, replace or refund")
			}
			decision := d
			req.Items[d.ItemIndex].CustomerDecision = &decision
			req.Items[d.ItemIndex].Resolution = ""
			review.Items = append(review.Items, decision)
		}
		req.SubStatus = domain.SubStatusReturnRequested
	default:
		return apperrors.NewValidationError("invalid customer decision", map[string]any{"decision": cmd.Decision})
	}
	req.CustomerReview = review
	e.appendHistory(req, actor, domain.HistoryCustomerReviewed, previous, map[string]any{
		"sub_status":     req.SubStatus,
		"decision":       cmd.Decision,
		"rejected_items": len(review.Items),
	})
	return nil
}

func (e *Engine) choosePacking(req *domain.Request, actor domain.Actor, cmd PackingCommand) error {
	if req.SubStatus != domain.SubStatusCustomerApproved && req.SubStatus != domain.SubStatusPackingSelected {
		return invalidTransition(domain.TransitionPackingChoice, req)
	}
	if cmd.Choice != domain.PackingPackNow && cmd.Choice != domain.PackingWaitInBox {
		return apperrors.NewValidationError("packing choice must be pack_now or wait_in_box", map[string]any{"choice": cmd.Choice})
	}
	previous := map[string]any{"sub_status": req.SubStatus}
	if req.Packing != nil {
		previous["choice"] = req.Packing.Choice
	}
	req.Packing = &domain.PackingRecord{
		Choice:    cmd.Choice,
		ChosenBy:  actor.ID,
		ChosenAt:  e.now(),
		ActorKind: actor.Kind,
	}
	req.SubStatus = domain.SubStatusPackingSelected
	e.appendHistory(req, actor, domain.HistoryPackingChosen, previous, map[string]any{
		"sub_status": req.SubStatus,
		"choice":     cmd.Choice,
	})
	return nil
}

func (e *Engine) ship(req *domain.Request, actor domain.Actor, cmd ShipCommand) error {
	// Only paid orders the customer has accepted leave the warehouse.
	if req.PaymentStatus != domain.PaymentStatusPaid ||
		(req.SubStatus != domain.SubStatusCustomerApproved && req.SubStatus != domain.SubStatusPackingSelected) {
		return invalidTransition(domain.TransitionShip, req)
	}
	carrier := strings.TrimSpace(cmd.Carrier)
	tracking := strings.TrimSpace(cmd.TrackingNumber)
	if carrier == "" || tracking == "" {
		return apperrors.NewValidationError("carrier and tracking number are required", map[string]any{
			"fields": []string{"carrier", "tracking_number"},
		})
	}
	previous := map[string]any{"status": req.Status}
	now := e.now()
	req.Shipping.Carrier = carrier
	req.Shipping.TrackingNumber = tracking
	req.Shipping.ShippedAt = &now
	if cmd.EstimatedDelivery != nil {
		eta := *cmd.EstimatedDelivery
		req.Shipping.EstimatedDelivery = &eta
	}
	req.Status = domain.RequestStatusShipped
	e.appendHistory(req, actor, domain.HistoryShipped, previous, map[string]any{
		"status":          req.Status,
		"carrier":         carrier,
		"tracking_number": tracking,
	})
	return nil
}

func (e *Engine) deliver(req *domain.Request, actor domain.Actor, cmd DeliverCommand) error {
	previous := map[string]any{"status": req.Status}
	deliveredAt := e.now()
	if cmd.DeliveredAt != nil {
		deliveredAt = *cmd.DeliveredAt
	}
	req.Shipping.ActualDelivery = &deliveredAt
	req.Status = domain.RequestStatusDelivered
	e.appendHistory(req, actor, domain.HistoryDelivered, previous, map[string]any{
		"status":          req.Status,
		"actual_delivery": deliveredAt,
	})
	return nil
}

func (e *Engine) returnOrReplace(req *domain.Request, actor domain.Actor, cmd ReturnCommand) error {
	if err := checkItemIndex(req, cmd.ItemIndex); err != nil {
		return err
	}
	if !req.Items[cmd.ItemIndex].Flagged() {
		return itemError(cmd.ItemIndex, "item_index", "item was not flagged by the customer")
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return apperrors.NewValidationError("reason is required", map[string]any{"field": "reason"})
	}
	if cmd.Action != domain.ResolutionReturn && cmd.Action != domain.ResolutionReplace {
		return apperrors.NewValidationError("action must be return or replace", map[string]any{"action": cmd.Action})
	}
	if cmd.Action == domain.ResolutionReturn && (cmd.Replacement != nil || cmd.EstimatedDelivery != nil) {
		return apperrors.NewValidationError("replacement data is only accepted for replace", nil)
	}

	previous := map[string]any{
		"status":         req.Status,
		"sub_status":     req.SubStatus,
		"payment_status": req.PaymentStatus,
		"total_amount":   req.TotalAmount.String(),
	}
	record := domain.ReturnRecord{
		ItemIndex: cmd.ItemIndex,
		Action:    cmd.Action,
		Reason:    reason,
		StaffID:   actor.ID,
		CreatedAt: e.now(),
	}

	item := &req.Items[cmd.ItemIndex]
	if cmd.Action == domain.ResolutionReplace {
		if cmd.Replacement != nil {
			replacement, err := normalizeItem(cmd.ItemIndex, *cmd.Replacement)
			if err != nil {
				return err
			}
			if replacement.Currency != req.Currency {
				return itemError(cmd.ItemIndex, "currency", "replacement must use the request currency")
			}
			replacement.CustomerDecision = item.CustomerDecision
			*item = replacement
			stored := replacement
			stored.CustomerDecision = nil
			record.Replacement = &stored
		}
		if cmd.EstimatedDelivery != nil {
			eta := *cmd.EstimatedDelivery
			req.Shipping.EstimatedDelivery = &eta
			record.EstimatedDelivery = &eta
		}
		item.Condition = ""
	}
	item.Resolution = cmd.Action
	req.Returns = append(req.Returns, record)
	req.RecalculateTotal()
	settleAfterReturn(req)

	e.appendHistory(req, actor, domain.HistoryReturnReplacement, previous, map[string]any{
		"status":         req.Status,
		"sub_status":     req.SubStatus,
		"payment_status": req.PaymentStatus,
		"total_amount":   req.TotalAmount.String(),
		"item_index":     cmd.ItemIndex,
		"action":         cmd.Action,
	})
	return nil
}

// settleAfterReturn moves the sub-status once a flagged item has been handled.
func settleAfterReturn(req *domain.Request) {
	allReturned := true
	anyFlagged := false
	awaitingRepurchase := false
	for _, item := range req.Items {
		if item.Resolution != domain.ResolutionReturn {
			allReturned = false
		}
		if item.Flagged() {
			anyFlagged = true
		}
		if item.Resolution == domain.ResolutionReplace && item.Condition == "" {
			awaitingRepurchase = true
		}
	}

	switch {
	case allReturned:
		req.PaymentStatus = domain.PaymentStatusRefunded
		req.SubStatus = domain.SubStatusReturned
	case anyFlagged:
		req.SubStatus = domain.SubStatusReturnRequested
	case awaitingRepurchase && req.Status == domain.RequestStatusInProgress:
		// Replaced items go through purchase and QC again.
		req.SubStatus = domain.SubStatusPaymentCompleted
	case awaitingRepurchase:
		req.SubStatus = domain.SubStatusReplacementPending
	case req.Status == domain.RequestStatusInProgress:
		req.SubStatus = domain.SubStatusCustomerApproved
	}
}
