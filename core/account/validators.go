package account

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/darasa/core"
)

// password policy
var (
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceText    = "password must not contain whitespace"
	pwdNotAllNumText  = "password cannot be entirely numeric"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonText = "password is too common"
	// the very top of the usual breached-passwords lists; the backend holds
	// the full list, this is a cheap first line client-side.
	commonPasswords = []string{
		"111111", "123123", "1234567", "12345678", "123456789", "1234567890",
		"abc123", "admin", "dragon", "iloveyou", "letmein", "monkey",
		"password", "password1", "qwerty", "qwerty123", "sunshine", "welcome",
	}

	errPasswordPolicy = errors.New("password does not meet the security policy")
)

func init() {
	sort.Strings(commonPasswords)
}

func policyErr(text string) error {
	return core.NewValidationError(errPasswordPolicy, core.FieldError{Field: "password", Error: text})
}

// ValidatePassword applies the password policy:
// - minLen: 8
// - no whitespace
// - not all numeric
// - no common password
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
func ValidatePassword(pwd string, userAttrs ...string) error {
	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	// - minLen: 8
	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		return policyErr(pwdMinLenText)
	}
	for _, char := range []rune(pwd) {
		// - no whitespace
		if unicode.IsSpace(char) {
			return policyErr(pwdNoSpaceText)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	// - not all numeric
	if digitCount == pwdLen {
		return policyErr(pwdNotAllNumText)
	}

	// - no common passwords
	lpwd := strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) {
		if match := commonPasswords[idx]; lpwd == match {
			return policyErr(pwdNoCommonText)
		}
	}

	// - complexity: 1 upper, 1 lower, 1 digit & 1 special
	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return policyErr(pwdComplexityText)
	}

	// - no user attrs similarity
	for _, attr := range userAttrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return policyErr(pwdAttrSimText)
		}
	}
	return nil
}
