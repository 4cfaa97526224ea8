package auth

import (
	"fmt"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

// customerTransitions are the only transitions a customer may invoke, and only on requests they own.
var customerTransitions = map[domain.Transition]struct{}{
	domain.TransitionCreate:         {},
	domain.TransitionModify:         {},
	domain.TransitionCustomerReview: {},
	domain.TransitionPackingChoice:  {},
	domain.TransitionDelete:         {},
}

// staffPermission maps each staff transition to the permission it needs.
var staffPermission = map[domain.Transition]domain.Permission{
	domain.TransitionCreate:          domain.PermissionOrderManagement,
	domain.TransitionModify:          domain.PermissionOrderManagement,
	domain.TransitionReview:          domain.PermissionOrderManagement,
	domain.TransitionProcessPayment:  domain.PermissionFinancialAccess,
	domain.TransitionMarkPurchased:   domain.PermissionOrderManagement,
	domain.TransitionQualityControl:  domain.PermissionOrderManagement,
	domain.TransitionPackingChoice:   domain.PermissionOrderManagement,
	domain.TransitionShip:            domain.PermissionOrderManagement,
	domain.TransitionDeliver:         domain.PermissionOrderManagement,
	domain.TransitionReturnOrReplace: domain.PermissionOrderManagement,
	domain.TransitionDelete:          domain.PermissionOrderManagement,
}

// CanPerform decides whether actor may invoke t on req. For create, req is the request being
// built so ownership is checked against its customer id. It has no side effects.
func CanPerform(actor *domain.Actor, req *domain.Request, t domain.Transition) error {
	if actor == nil || actor.ID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}

	switch actor.Kind {
	case domain.ActorCustomer:
		if _, ok := customerTransitions[t]; !ok {
			return apperrors.NewForbidden(fmt.Sprintf("customers cannot perform %s", t))
		}
		if !actor.Owns(req) {
			return apperrors.NewForbidden("request belongs to another customer")
		}
		return nil
	case domain.ActorStaff:
		perm, ok := staffPermission[t]
		if !ok {
			return apperrors.NewForbidden(fmt.Sprintf("staff cannot perform %s", t))
		}
		if !actor.Has(perm) {
			return apperrors.NewForbidden(fmt.Sprintf("%s permission required", perm))
		}
		return nil
	default:
		return apperrors.NewUnauthorized("unknown actor")
	}
}

// CanView reports whether actor may read req: its owner, or staff holding any permission.
func CanView(actor *domain.Actor, req *domain.Request) error {
	if actor == nil || actor.ID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Owns(req) {
		return nil
	}
	if actor.IsStaff() && len(actor.Permissions) > 0 {
		return nil
	}
	return apperrors.NewForbidden("request not accessible")
}
