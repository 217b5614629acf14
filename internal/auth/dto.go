package auth

import "github.com/thekingleo527/FrancoSphere-sub016/internal/workers"

// Rejection reasons surfaced to the caller. The invalid-credentials message is
// deliberately identical for unknown emails and wrong passwords to avoid
// account enumeration; only lockout is distinguishable.
const (
	ReasonInvalidCredentials = "invalid credentials"
	ReasonLocked             = "account temporarily locked"
)

// Audit reasons recorded on login_attempts rows. These are internal and may
// be precise; they are never returned to the caller.
const (
	auditUnknownEmail  = "unknown email"
	auditInactive      = "account inactive"
	auditWrongPassword = "wrong password"
	auditLockedOut     = "account locked"
)

// LoginInput carries one authentication attempt.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the discriminated outcome of Authenticate. Wrong passwords
// and unknown users are rejections, not errors; only infrastructure failures
// surface as errors.
type AuthResult struct {
	Worker   *workers.WorkerDTO `json:"worker,omitempty"`
	Rejected bool               `json:"rejected"`
	Reason   string             `json:"reason,omitempty"`
}

// Authenticated reports whether the attempt succeeded.
func (r *AuthResult) Authenticated() bool {
	return r != nil && !r.Rejected && r.Worker != nil
}

func rejected(reason string) *AuthResult {
	return &AuthResult{Rejected: true, Reason: reason}
}
