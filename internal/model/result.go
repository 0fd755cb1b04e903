package model

// Result classifies the terminal outcome of a processed message. The set is
// closed and mirrors the message_status enum in the database.
type Result string

const (
	ResultSuccess     Result = "success"
	ResultFailed      Result = "failed"
	ResultRejected    Result = "rejected"
	ResultLockExpired Result = "lock_expired"
)

// Valid reports whether r is one of the known outcome kinds.
func (r Result) Valid() bool {
	switch r {
	case ResultSuccess, ResultFailed, ResultRejected, ResultLockExpired:
		return true
	}
	return false
}

// Outcome is what the processing engine hands back to the worker: a
// classification plus a human-readable explanation. An empty Details is
// stored as NULL.
type Outcome struct {
	Result  Result
	Details string
}
