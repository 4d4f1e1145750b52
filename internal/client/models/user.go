package models

import "encoding/json"

// User is the signed-in account as returned by the Auth API.
type User struct {
	ID       any    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`

	// Extra keeps every field the client does not model explicitly.
	Extra map[string]any `json:"-"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range []string{"id", "email", "full_name", "role"} {
		delete(all, k)
	}
	*u = User(p)
	if len(all) > 0 {
		u.Extra = all
	}
	return nil
}

// Clone returns a deep copy of u, Extra included.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Extra != nil {
		c.Extra = Record(u.Extra).Clone()
	}
	return &c
}

// UserFromRecord decodes a users collection record into a User.
func UserFromRecord(r Record) (*User, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DisplayName returns the full name when known, otherwise the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// AuthResponse is the envelope returned by the credential-submitting Auth
// API operations. User is nil when the server omitted it.
type AuthResponse struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// Phase is the authentication state of a session.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
