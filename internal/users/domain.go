package users

import "time"

// User is one entry of the admin user directory. The browse layer consumes it
// to build the username to id mapping.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
