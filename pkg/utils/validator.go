package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// CutoffLayout is the day-first date format operators type
const CutoffLayout = "02/01/2006"

// ParseCutoffDate parses an admission cutoff date in dd/mm/yyyy or yyyy-mm-dd
func ParseCutoffDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{CutoffLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid cutoff date %q, expected dd/mm/yyyy", s)
}

// ValidateCNPJ validates a Brazilian company tax id (14 digits, two check digits).
// Punctuation such as "65.035.552/0001-80" is accepted.
func ValidateCNPJ(cnpj string) error {
	digits := make([]int, 0, 14)
	for _, r := range cnpj {
		switch {
		case unicode.IsDigit(r):
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return fmt.Errorf("CNPJ contains invalid character %q: %s", r, cnpj)
		}
	}
	if len(digits) != 14 {
		return fmt.Errorf("CNPJ must have 14 digits: %s", cnpj)
	}

	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("CNPJ is not valid: %s", cnpj)
	}

	if cnpjCheckDigit(digits[:12]) != digits[12] || cnpjCheckDigit(digits[:13]) != digits[13] {
		return fmt.Errorf("CNPJ check digits do not match: %s", cnpj)
	}
	return nil
}

func cnpjCheckDigit(digits []int) int {
	weight := len(digits) - 7
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	if rest := sum % 11; rest >= 2 {
		return 11 - rest
	}
	return 0
}
