package eligibility

import "errors"

var (
	// ErrInvalidRules is returned when the rule configuration is inconsistent
	ErrInvalidRules = errors.New("invalid eligibility rules")
)
