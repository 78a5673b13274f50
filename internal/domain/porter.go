package domain

import "time"

// PorterProfile holds the porter-specific part of a user account.
type PorterProfile struct {
	ID             string
	UserID         string
	LicenseNumber  string
	VehicleType    string
	VehicleNumber  string
	IsAvailable    bool
	CommissionRate float64 // fraction of booking total, 0.20 = 20%
	TotalEarnings  float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DocumentType names an onboarding document a porter uploads.
type DocumentType string

const (
	DocumentIDProof             DocumentType = "id_proof"
	DocumentLicensePhoto        DocumentType = "license_photo"
	DocumentVehicleRegistration DocumentType = "vehicle_registration"
	DocumentVehiclePhoto        DocumentType = "vehicle_photo"
)

// RequiredPorterDocuments must all be present for a porter registration.
var RequiredPorterDocuments = []DocumentType{
	DocumentIDProof,
	DocumentLicensePhoto,
	DocumentVehicleRegistration,
}

// PorterDocument is an uploaded onboarding document.
type PorterDocument struct {
	ID        string
	UserID    string
	Type      DocumentType
	URL       string
	CreatedAt time.Time
}

// Porter joins a porter's user record with its profile.
type Porter struct {
	User    User
	Profile PorterProfile
}
