package domain

import "time"

// User represents a user in the system. The ID is the subject claim issued by
// the identity provider.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile represents the identity returned by the external auth provider
type UserProfile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// AuthContext carries the authenticated caller through a request. Handlers
// receive it from the auth middleware instead of consulting any global state.
type AuthContext struct {
	UserID   string
	Email    string
	Name     string
	Timezone string
}
