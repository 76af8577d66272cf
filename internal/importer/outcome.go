package importer

// RowFailure records one row that did not make it into the store. RowIndex
// matches the data-row numbering of the source file so the operator can find
// and fix the line.
type RowFailure struct {
	RowIndex int               `json:"row"`
	Message  string            `json:"message"`
	Raw      map[string]string `json:"rawRow,omitempty"`
}

// Outcome is the accumulated result of one batch commit. It is created once
// per commit and immutable once returned; SuccessCount+FailureCount always
// equals the number of rows submitted.
type Outcome struct {
	SuccessCount int          `json:"successCount"`
	FailureCount int          `json:"errorCount"`
	Failures     []RowFailure `json:"errors"`
	CreatedIDs   []int64      `json:"createdIds,omitempty"`
}
