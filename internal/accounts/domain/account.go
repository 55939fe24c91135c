package domain

import "time"

// PaymentStatus is the review state of a registrant's proof of payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Eligibility is the login gate derived from an account's approval fields.
type Eligibility string

const (
	EligibilityPending  Eligibility = "pending"
	EligibilityRejected Eligibility = "rejected"
	EligibilityApproved Eligibility = "approved"
)

// Account is one registrant, keyed by a unique email.
type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	FullName          string
	State             string
	Address           string
	PaymentID         string
	PaymentScreenshot string // reference to an uploaded image, never the bytes
	PaymentStatus     PaymentStatus
	IsApproved        bool
	Role              Role
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Eligibility reports whether the account may log in. Only IsApproved grants
// access; PaymentStatus only picks which refusal applies.
func (a Account) Eligibility() Eligibility {
	switch {
	case a.IsApproved:
		return EligibilityApproved
	case a.PaymentStatus == PaymentRejected:
		return EligibilityRejected
	default:
		return EligibilityPending
	}
}
