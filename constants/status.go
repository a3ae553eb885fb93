package constants

// OutcomeStatus is the result of handling one incoming file.
type OutcomeStatus string

const (
	StatusProcessed OutcomeStatus = "PROCESSED" // new invoice stored
	StatusDuplicate OutcomeStatus = "DUPLICATE" // content hash already stored
	StatusFailed    OutcomeStatus = "FAILED"    // moved to the failed directory
)
