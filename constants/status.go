package constants

// TaskStatus is the canonical status for background processing tasks
// (extraction, renaming). Stable values; stored and reported as-is.
type TaskStatus string

const (
	TaskStatusQueued  TaskStatus = "QUEUED"  // accepted, waiting for its turn
	TaskStatusRunning TaskStatus = "RUNNING" // in progress
	TaskStatusOK      TaskStatus = "OK"      // completed successfully
	TaskStatusFailed  TaskStatus = "FAILED"  // terminal failure
	TaskStatusSkipped TaskStatus = "SKIPPED" // deliberately not performed (soft failure)
)

// TaskKind identifies what a background task does.
type TaskKind string

const (
	TaskKindExtraction TaskKind = "EXTRACTION"
	TaskKindRename     TaskKind = "RENAME"
)

// DocCategory tags a document's role in the workflow.
type DocCategory string

const (
	CategoryRegular   DocCategory = "regular"
	CategoryContext   DocCategory = "context"
	CategoryGenerated DocCategory = "generated"
)
