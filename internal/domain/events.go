package domain

// Exchange and routing key for user lifecycle events published to RabbitMQ.
const (
	UserEventsExchange    = "user_events"
	UserCreatedRoutingKey = "user.created"
)

// UserCreatedEvent is the payload published after a user and their account
// have been provisioned. Downstream services key off the user ID.
type UserCreatedEvent struct {
	UserID    string  `json:"user_id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Balance   float64 `json:"balance"`
}
