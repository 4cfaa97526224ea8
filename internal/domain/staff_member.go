package domain

import "time"

// StaffMember models an operator who reviews, prices and fulfils requests.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Permissions  []Permission
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor converts the staff member into an engine actor.
func (s *StaffMember) Actor() Actor {
	return StaffActor(s.ID, s.Permissions...)
}
