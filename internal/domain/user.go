package domain

import "time"

// Role identifies which part of the product a user can access.
type Role string

const (
	RoleCustomer Role = "customer"
	RolePorter   Role = "porter"
	RoleAdmin    Role = "admin"
)

// VerificationStatus tracks admin review of a user (porters only in practice).
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// User represents any account in the system.
type User struct {
	ID                 string
	Email              string
	Phone              string
	FullName           string
	Role               Role
	PasswordHash       string
	Address            string
	City               string
	VerificationStatus VerificationStatus
	IsActive           bool
	Rating             float64
	TotalBookings      int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RolePorter, RoleAdmin:
		return true
	}
	return false
}
