package expense

import "github.com/shopspring/decimal"

// Severity decides whether an issue stops a submission
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// Issue codes
const (
	CodeDistanceNegative       = "distance_negative"
	CodeDistanceUnusuallyHigh  = "distance_unusually_high"
	CodeHotelBillRequired      = "hotel_bill_required"
	CodeHotelBillNegative      = "hotel_bill_negative"
	CodeHotelBillUnusuallyHigh = "hotel_bill_unusually_high"
)

// Issue is one user-facing validation finding
type Issue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Blocking reports whether the issue stops a submission
func (i Issue) Blocking() bool {
	return i.Severity == SeverityBlocking
}

// ValidationResult carries every issue found, never just the first
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Issues []Issue  `json:"issues"`
}

// BlockingErrors returns the messages of blocking issues only
func (r ValidationResult) BlockingErrors() []string {
	return messages(r.Issues, func(i Issue) bool { return i.Blocking() })
}

// Warnings returns the messages of non-blocking issues
func (r ValidationResult) Warnings() []string {
	return messages(r.Issues, func(i Issue) bool { return !i.Blocking() })
}

// ValidationPolicy decides how the "unusually high" checks are treated.
// Negative values and a missing night-stay bill are always blocking.
type ValidationPolicy struct {
	UnusualAmountSeverity Severity
	MaxDistanceKm         decimal.Decimal
	MaxHotelBill          decimal.Decimal
}

// DefaultValidationPolicy treats unusually high amounts as blocking,
// which is how submissions have always been handled.
func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{
		UnusualAmountSeverity: SeverityBlocking,
		MaxDistanceKm:         decimal.NewFromInt(1000),
		MaxHotelBill:          decimal.NewFromInt(10000),
	}
}

// ValidateInput checks an input against the default policy
func ValidateInput(in Input) ValidationResult {
	return ValidateInputWithPolicy(in, DefaultValidationPolicy())
}

// ValidateInputWithPolicy checks an input and collects every issue found.
// It never fails.
func ValidateInputWithPolicy(in Input, policy ValidationPolicy) ValidationResult {
	unusual := policy.UnusualAmountSeverity
	if unusual != SeverityWarning {
		unusual = SeverityBlocking
	}

	var issues []Issue

	if in.DistanceKm.IsNegative() {
		issues = append(issues, Issue{CodeDistanceNegative, "Distance cannot be negative", SeverityBlocking})
	}

	if in.DistanceKm.GreaterThan(policy.MaxDistanceKm) {
		issues = append(issues, Issue{
			CodeDistanceUnusuallyHigh,
			"Distance seems unusually high (>" + policy.MaxDistanceKm.String() + " km). Please verify.",
			unusual,
		})
	}

	if in.IsNightStay && !in.HotelBillAmount.IsPositive() {
		issues = append(issues, Issue{CodeHotelBillRequired, "Hotel bill amount is required for night stay", SeverityBlocking})
	}

	if in.HotelBillAmount.IsNegative() {
		issues = append(issues, Issue{CodeHotelBillNegative, "Hotel bill amount cannot be negative", SeverityBlocking})
	}

	if in.HotelBillAmount.GreaterThan(policy.MaxHotelBill) {
		issues = append(issues, Issue{CodeHotelBillUnusuallyHigh, "Hotel bill amount seems unusually high. Please verify.", unusual})
	}

	return newResult(issues)
}

func newResult(issues []Issue) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
		Issues: []Issue{},
	}
	for _, issue := range issues {
		result.Issues = append(result.Issues, issue)
		result.Errors = append(result.Errors, issue.Message)
		if issue.Blocking() {
			result.Valid = false
		}
	}
	return result
}

func messages(issues []Issue, keep func(Issue) bool) []string {
	out := []string{}
	for _, issue := range issues {
		if keep(issue) {
			out = append(out, issue.Message)
		}
	}
	return out
}
