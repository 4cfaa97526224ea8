package domain

// ActorKind differentiates customers from staff.
type ActorKind string

const (
	ActorCustomer ActorKind = "customer"
	ActorStaff    ActorKind = "staff"
)

// Permission is a named capability a staff member may hold.
type Permission string

const (
	PermissionOrderManagement Permission = "order_management"
	PermissionFinancialAccess Permission = "financial_access"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p == PermissionOrderManagement || p == PermissionFinancialAccess
}

// Actor is an already resolved caller: Customer{ID} or Staff{ID, Permissions}.
type Actor struct {
	Kind        ActorKind
	ID          string
	Permissions map[Permission]struct{}
}

// CustomerActor builds a customer actor.
func CustomerActor(customerID string) Actor {
	return Actor{Kind: ActorCustomer, ID: customerID}
}

// StaffActor builds a staff actor holding the given permissions.
func StaffActor(staffID string, perms ...Permission) Actor {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return Actor{Kind: ActorStaff, ID: staffID, Permissions: set}
}

// IsCustomer reports whether the actor is a customer.
func (a Actor) IsCustomer() bool { return a.Kind == ActorCustomer }

// IsStaff reports whether the actor is a staff member.
func (a Actor) IsStaff() bool { return a.Kind == ActorStaff }

// Has reports whether a staff actor holds p. Customers hold no permissions.
func (a Actor) Has(p Permission) bool {
	if a.Kind != ActorStaff {
		return false
	}
	_, ok := a.Permissions[p]
	return ok
}

// HasAny reports whether a staff actor holds at least one of perms.
func (a Actor) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if a.Has(p) {
			return true
		}
	}
	return false
}

// Owns reports whether a customer actor owns the request.
func (a Actor) Owns(req *Request) bool {
	return a.Kind == ActorCustomer && req != nil && a.ID != "" && req.CustomerID == a.ID
}
