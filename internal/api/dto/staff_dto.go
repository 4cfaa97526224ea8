package dto

import "github.com/spec-kit/buyforme-service/internal/domain"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StaffResponse is the public view of a staff member.
type StaffResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Permissions []domain.Permission `json:"permissions"`
	Active      bool                `json:"active"`
}

// NewStaffResponse maps a staff member.
func NewStaffResponse(staff *domain.StaffMember) StaffResponse {
	perms := staff.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	return StaffResponse{
		ID:          staff.ID,
		Name:        staff.Name,
		Email:       staff.Email,
		Permissions: perms,
		Active:      staff.Active,
	}
}
