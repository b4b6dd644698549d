package models

// User is the operator identity returned by the auth endpoint
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RoleAdmin unlocks the privileged console surfaces
const RoleAdmin = "admin"

// Credential is the persisted session credential: a bearer token plus the
// user object issued with it. It is mirrored to both sinks (cookie and local
// store) by the auth controller.
type Credential struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}
