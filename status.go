package sqlauth

// Status defines a public type used by sqlauth APIs.
type Status int

// Account statuses. New accounts start as StatusNormal; every other value is
// assigned by the embedding application through its own moderation tooling.
const (
	StatusNormal        Status = 0
	StatusArchived      Status = 1
	StatusBanned        Status = 2
	StatusLocked        Status = 3
	StatusPendingReview Status = 4
	StatusSuspended     Status = 5
)

// String describes the string operation and its observable behavior.
func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "NORMAL"
	case StatusArchived:
		return "ARCHIVED"
	case StatusBanned:
		return "BANNED"
	case StatusLocked:
		return "LOCKED"
	case StatusPendingReview:
		return "PENDING_REVIEW"
	case StatusSuspended:
		return "SUSPENDED"
	}
	return "UNKNOWN"
}
