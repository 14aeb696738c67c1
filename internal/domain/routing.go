package domain

// UnassignedReason distinguishes the expected non-assignment outcomes.
// Neither is an error; the message stays PENDING for manual handling or a
// later retry.
type UnassignedReason string

const (
	ReasonNoKeywordMatch  UnassignedReason = "NO_KEYWORD_MATCH"
	ReasonNoEligibleStaff UnassignedReason = "NO_ELIGIBLE_STAFF"
)
