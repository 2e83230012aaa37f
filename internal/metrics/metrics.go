// Package metrics exposes Prometheus counters for expense submissions,
// validation findings and manager decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes
const (
	OutcomeAccepted      = "accepted"
	OutcomeFlagged       = "flagged"
	OutcomeRejected      = "rejected"
	OutcomeWindowClosed  = "window_closed"
	OutcomeInternalError = "error"
)

// ExpenseMetrics implements service.Metrics on top of Prometheus
type ExpenseMetrics struct {
	submissions      *prometheus.CounterVec
	validationIssues *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	imageVerdicts    *prometheus.CounterVec
}

// New registers the expense counters with registerer. A nil registerer
// means prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *ExpenseMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &ExpenseMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "field_expense_submissions_total",
			Help: "Expense submissions by outcome.",
		}, []string{"outcome"}),
		validationIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "field_expense_validation_issues_total",
			Help: "Validation and proof issues raised on submission, by code.",
		}, []string{"code"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "field_expense_decisions_total",
			Help: "Manager decisions on expenses.",
		}, []string{"decision"}),
		imageVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "field_expense_image_verdicts_total",
			Help: "Image validation verdicts by kind and recommended action.",
		}, []string{"kind", "action"}),
	}

	registerer.MustRegister(m.submissions, m.validationIssues, m.decisions, m.imageVerdicts)
	return m
}

// SubmissionObserved counts one submission attempt
func (m *ExpenseMetrics) SubmissionObserved(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// ValidationIssueObserved counts one issue code
func (m *ExpenseMetrics) ValidationIssueObserved(code string) {
	m.validationIssues.WithLabelValues(code).Inc()
}

// DecisionObserved counts one approve or reject
func (m *ExpenseMetrics) DecisionObserved(decision string) {
	m.decisions.WithLabelValues(decision).Inc()
}

// ImageVerdictObserved counts one image verdict
func (m *ExpenseMetrics) ImageVerdictObserved(kind, action string) {
	m.imageVerdicts.WithLabelValues(kind, action).Inc()
}
