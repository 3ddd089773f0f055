package auth

import (
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

const specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_{|}~`"

// StrengthReport is an advisory assessment of a master password. Nothing is
// enforced: the caller only shows it to the user.
type StrengthReport struct {
	Score     int // 0 (weak) .. 4 (strong), zxcvbn scale
	CrackTime string
	Hints     []string
}

// Weak reports whether the score is below the zxcvbn "safely unguessable" mark.
func (r StrengthReport) Weak() bool { return r.Score < 3 }

// Strength scores pw with zxcvbn. userInputs are words the estimator should
// treat as guessable, e.g. account names.
func Strength(pw string, userInputs []string) StrengthReport {
	m := zxcvbn.PasswordStrength(pw, userInputs)
	report := StrengthReport{
		Score:     m.Score,
		CrackTime: m.CrackTimeDisplay,
	}

	if len(pw) < 12 {
		report.Hints = append(report.Hints, "use at least 12 characters")
	}
	if !hasUpper(pw) {
		report.Hints = append(report.Hints, "add an uppercase letter")
	}
	if !hasDigit(pw) {
		report.Hints = append(report.Hints, "add a digit")
	}
	if !hasSpecial(pw) {
		report.Hints = append(report.Hints, "add a special character")
	}
	return report
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasSpecial(s string) bool {
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
