// Package auth implements the identity and session model: registration with
// unique usernames, bcrypt credential hashing, opaque bearer-token sessions
// stored with a TTL, and token resolution for the other plugins.
//
// Key layout: user:{id} (record hash), user:byname:{username} (unique
// binding), session:{token} (token -> user id, expiring), user:sessions:{uid}
// (set of active tokens per user).
package auth

import "time"

// User represents a registered user. This is the domain model used
// throughout the application; it is serialized to the string-keyed hash
// representation only at the repository boundary.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never expose in JSON responses.

	// CreatedAt is the ISO-8601 UTC creation timestamp, kept in its stored
	// string form.
	CreatedAt string `json:"created_at"`
}

// Public returns the caller-facing projection of the user.
func (u *User) Public() UserPublic {
	return UserPublic{ID: u.ID, Username: u.Username}
}

// --- Request/response DTOs ---

// RegisterRequest holds the data submitted to POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest holds the data submitted to POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserPublic is the public identity returned by register and /auth/me.
type UserPublic struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginResponse carries the opaque bearer token issued on login.
type LoginResponse struct {
	Token string `json:"token"`
}

// nowISO returns the current time as an ISO-8601 UTC string, the stored
// timestamp format for every record in the store.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
