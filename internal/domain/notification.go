package domain

import "time"

// Notification types. One constant per domain event that fans out to inboxes.
const (
	TypeGroupJoin           = "group_join"
	TypeGroupLeave          = "group_leave"
	TypeEventCreated        = "event_created"
	TypeEventCancelled      = "event_cancelled"
	TypeEventRSVPYes        = "event_rsvp_yes"
	TypeEventRSVPNo         = "event_rsvp_no"
	TypeGroupInvite         = "group_invite"
	TypeGroupInviteResponse = "group_invite_response"
)

// Notification is one inbox record, owned by exactly one recipient.
// CreatedAt is assigned server-side so ordering is stable for pagination.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	Type           string    `json:"type" dynamodbav:"notification_type"`
	GroupID        string    `json:"group_id" dynamodbav:"group_id"`
	EventID        *string   `json:"event_id" dynamodbav:"event_id"`
	Title          string    `json:"title" dynamodbav:"title"`
	Body           string    `json:"body" dynamodbav:"body"`
	Link           *string   `json:"link" dynamodbav:"link"`
	ActorID        *string   `json:"actor_id" dynamodbav:"actor_id"`
	ActorName      *string   `json:"actor_name" dynamodbav:"actor_name"`
	ActorPhoto     *string   `json:"actor_photo" dynamodbav:"actor_photo"`
	Read           bool      `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// Payload is the event-side input a fan-out starts from. Optional fields stay
// nil here; the writer normalizes them to explicit nulls on persistence so
// records round-trip through the store unchanged.
type Payload struct {
	Type       string  `json:"type" validate:"required"`
	GroupID    string  `json:"group_id" validate:"required"`
	EventID    *string `json:"event_id"`
	Title      string  `json:"title" validate:"required"`
	Body       string  `json:"body" validate:"required"`
	Link       *string `json:"link"`
	ActorID    *string `json:"actor_id"`
	ActorName  *string `json:"actor_name"`
	ActorPhoto *string `json:"actor_photo"`
}
