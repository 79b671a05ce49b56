package domain

import "time"

// GroupMember is one membership record under a group. Only UserID matters for
// fan-out; the rest rides along from the membership flow.
type GroupMember struct {
	GroupID  string    `json:"group_id" dynamodbav:"group_id"`
	UserID   string    `json:"user_id" dynamodbav:"user_id"`
	Role     string    `json:"role" dynamodbav:"member_role"`
	JoinedAt time.Time `json:"joined" dynamodbav:"joined_at"`
}

// TokenSet is the per-user push-token document. Tokens is a set, not a flat
// field, so one user can hold registrations for several devices at once.
type TokenSet struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Tokens    []string  `json:"tokens" dynamodbav:"tokens,stringset"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
