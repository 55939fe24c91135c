package accountsdk

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PasswordSpecials are the symbols a password must draw at least one of.
const PasswordSpecials = "@$!%*?&"

// PasswordMaxLength is bcrypt's input limit. The charset is ASCII so
// characters and bytes agree.
const PasswordMaxLength = 72

var passwordCharset = regexp.MustCompile(`^[A-Za-z0-9@$!%*?&]+$`)

// ErrWeakPassword describes the password policy.
var ErrWeakPassword = errors.New("must contain a lowercase letter, an uppercase letter, a digit and one of " + PasswordSpecials)

// PasswordPolicy is the rule set applied to new passwords: 8 to
// PasswordMaxLength characters drawn from letters, digits and
// PasswordSpecials, with at least one of each class.
var PasswordPolicy = []validation.Rule{
	validation.Required,
	validation.Length(8, PasswordMaxLength),
	validation.Match(passwordCharset).Error("may only contain letters, digits and " + PasswordSpecials),
	validation.By(checkPasswordClasses),
}

func checkPasswordClasses(value any) error {
	pw, _ := value.(string)
	if pw == "" {
		return nil // Required reports this
	}

	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	if lower && upper && digit && special {
		return nil
	}
	return ErrWeakPassword
}

// Validate checks the registration fields. Returns a map of field names to
// error messages, or nil if all fields are valid.
func (r RegisterRequest) Validate() map[string]string {
	return flatten(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, PasswordPolicy...),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.State, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.PaymentID, validation.Length(0, 200)),
		validation.Field(&r.PaymentScreenshot, validation.Length(0, 2048)),
	))
}

// Validate checks that both credentials are present. The password policy is
// not applied so accounts created under older rules can still log in.
func (r LoginRequest) Validate() map[string]string {
	return flatten(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

// Validate checks the review decision.
func (r ReviewRequest) Validate() map[string]string {
	return flatten(validation.ValidateStruct(&r,
		validation.Field(&r.Decision, validation.Required, validation.In(DecisionApprove, DecisionReject)),
	))
}

func flatten(err error) map[string]string {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for field, ferr := range fieldErrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
