package domain

// SubjectType is the kind claim carried by access tokens. Its values match ActorKind.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = SubjectType(ActorCustomer)
	SubjectTypeStaff SubjectType = SubjectType(ActorStaff)
)
