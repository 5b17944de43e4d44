package models

// Realtime event names shared by the websocket hub and the audit publisher.
const (
	EventUserCreated  = "user_created"
	EventUserUpdated  = "user_updated"
	EventUserDeleted  = "user_deleted"
	EventUsersList    = "users_list"
	EventError        = "error"
	EventRequestUsers = "request_users"
)

// Event is one message on the realtime channel or the audit topic. Data is
// always serialized: an empty snapshot must still carry its empty array.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ErrorPayload is the data of an "error" event.
type ErrorPayload struct {
	Message string `json:"message"`
}
