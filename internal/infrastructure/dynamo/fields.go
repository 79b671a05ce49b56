package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldRead             = "read"
	fieldTokens           = "tokens"
	fieldUpdatedAt        = "updated_at"
	fieldPushTokensLegacy = "push_tokens_legacy"
)

// transactLimit is the largest item count DynamoDB accepts in one
// TransactWriteItems call. Writer-level batches of up to 400 records are
// split into transactions of this size inside the repo.
const transactLimit = 100
