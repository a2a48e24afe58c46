package accountstore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"unicode"
)

// PasswordPolicy defines the requirements for password complexity.
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
}

// DefaultPasswordPolicy returns the policy applied when none is configured.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: true,
	}
}

// NoOpPasswordPolicy returns a policy that accepts any password.
func NoOpPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{}
}

// Check validates a password against the policy. Every violation is reported,
// joined into a single error, so callers can surface all of them at once.
func (p *PasswordPolicy) Check(password string) error {
	if p == nil {
		p = DefaultPasswordPolicy()
	}

	var violations []error

	if len(password) < p.MinLength {
		violations = append(violations, Newf(ErrCodePasswordTooShort,
			"password must be at least %d characters long", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			hasSpecial = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		violations = append(violations, NewError(ErrCodePasswordRequiresUpper,
			"password must contain an uppercase letter"))
	}
	if p.RequireLowercase && !hasLower {
		violations = append(violations, NewError(ErrCodePasswordRequiresLower,
			"password must contain a lowercase letter"))
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, NewError(ErrCodePasswordRequiresDigit,
			"password must contain a digit"))
	}
	if p.RequireSpecialChar && !hasSpecial {
		violations = append(violations, NewError(ErrCodePasswordRequiresSpecial,
			"password must contain a non-alphanumeric character"))
	}

	if len(violations) > 0 {
		return errors.Join(violations...)
	}
	return nil
}

// generateResetToken produces a one-time password reset credential.
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
