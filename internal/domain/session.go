package domain

// Session is the authenticated identity of one CRM user. It is built once at
// login and handed to every call that needs a token, a role or a user id.
type Session struct {
	Token  string   `json:"token"`
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Role   UserRole `json:"user_role"`
}

func (s Session) IsPrivileged() bool { return s.Role.IsPrivileged() }

func (s Session) CanExport() bool { return s.Role.CanExport() }

// Valid reports whether the session carries enough to call the API.
func (s Session) Valid() bool {
	return s.Token != "" && s.UserID != ""
}
