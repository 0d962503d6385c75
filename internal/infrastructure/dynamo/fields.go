package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAuthCode     = "auth_code"
	fieldCodeIssuedAt = "code_issued_at"
	fieldAttemptCount = "attempt_count"
	fieldLastLogin    = "last_login"
	fieldStamp        = "stamp"
)
