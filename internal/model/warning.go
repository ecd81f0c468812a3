package model

import "fmt"

// WarningKind classifies a non-fatal problem found while loading.
type WarningKind string

const (
	WarningSourceUnreadable WarningKind = "source_unreadable"
	WarningSourceUnusable   WarningKind = "source_unusable"
	WarningSheetUnavailable WarningKind = "sheet_unavailable"
	WarningRowMalformed     WarningKind = "row_malformed"
	WarningRowCoerced       WarningKind = "row_coerced"
)

// Warning is surfaced to the operator instead of failing the load.
type Warning struct {
	Source  string      `json:"source"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s [%s]: %s", w.Source, w.Kind, w.Message)
}
