package accountsdk

import "time"

// Registration statuses reported by the service.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Review decisions accepted by the admin review endpoint.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// RegisterRequest is the body of POST /v1/accounts.
type RegisterRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	FullName          string `json:"fullName"`
	State             string `json:"state"`
	Address           string `json:"address"`
	PaymentID         string `json:"paymentId,omitempty"`
	PaymentScreenshot string `json:"paymentScreenshot,omitempty"`
}

// RegisterResponse acknowledges a registration that now awaits approval.
type RegisterResponse struct {
	Message       string `json:"message"`
	Email         string `json:"email"`
	PaymentStatus string `json:"paymentStatus"`
	Role          string `json:"role"`
}

// LoginRequest is the body of POST /v1/sessions.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by a successful login.
type SessionResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	State    string `json:"state"`
	Address  string `json:"address"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

// Account is the profile view returned by authenticated endpoints.
type Account struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"fullName"`
	State             string     `json:"state"`
	Address           string     `json:"address"`
	PaymentID         string     `json:"paymentId,omitempty"`
	PaymentScreenshot string     `json:"paymentScreenshot,omitempty"`
	PaymentStatus     string     `json:"paymentStatus"`
	IsApproved        bool       `json:"isApproved"`
	Role              string     `json:"role"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// AccountList is returned by the admin listing endpoint.
type AccountList struct {
	Accounts []Account `json:"accounts"`
}

// ReviewRequest is the body of POST /v1/admin/accounts/{id}/review.
type ReviewRequest struct {
	Decision string `json:"decision"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Status  string            `json:"status,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
