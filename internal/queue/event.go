// Package queue defines message payloads exchanged over the message broker.
package queue

// Auth activity actions published to the auth.activity queue.
const (
	ActionSignup      = "signup"
	ActionLogin       = "login"
	ActionSocialLogin = "social_login"
	ActionLogout      = "logout"
	ActionRoleChange  = "role_change"
	ActionBan         = "ban"
	ActionUnban       = "unban"
)

// AuthActivityEvent is published when an account-level action completes.
// It carries enough information for downstream consumers to log, alert, or
// feed analytics without querying the primary database.
type AuthActivityEvent struct {
	Action     string `json:"action"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ActorID    string `json:"actor_id,omitempty"` // admin who performed the action, when not the user
	Provider   string `json:"provider,omitempty"` // firebase | google for social logins
	OccurredAt string `json:"occurred_at"`
}
