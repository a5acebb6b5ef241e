package fhir

// OperationOutcome represents a FHIR OperationOutcome for errors and
// informational results on the HTTP surface.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    severity,
				Code:        code,
				Diagnostics: diagnostics,
			},
		},
	}
}

func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome("error", "processing", diagnostics)
}

func InvalidOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome("error", "invalid", diagnostics)
}

// WarningOutcome creates a warning OperationOutcome. Used when an operation
// succeeded but produced non-fatal warnings the client should be aware of,
// e.g. a duplicate check skipped because the search backend was unreachable.
func WarningOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome("warning", "processing", diagnostics)
}

func SuccessOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome("information", "informational", diagnostics)
}
