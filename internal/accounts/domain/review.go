package domain

// ReviewDecision is an administrator's verdict on a pending registration.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// Outcome returns the approval fields a decision writes. ok is false for an
// unknown decision.
func (d ReviewDecision) Outcome() (status PaymentStatus, approved bool, ok bool) {
	switch d {
	case DecisionApprove:
		return PaymentApproved, true, true
	case DecisionReject:
		return PaymentRejected, false, true
	}
	return "", false, false
}
