package service

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics receives business counters from the services
type Metrics interface {
	SubmissionObserved(outcome string)
	ValidationIssueObserved(code string)
	DecisionObserved(decision string)
	ImageVerdictObserved(kind, action string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) SubmissionObserved(string)           {}
func (NopMetrics) ValidationIssueObserved(string)      {}
func (NopMetrics) DecisionObserved(string)             {}
func (NopMetrics) ImageVerdictObserved(string, string) {}
