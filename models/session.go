package models

// Session is the identity decoded from a backend-issued access token.
// Metadata carries whatever the identity provider attached to the account
// (full_name, name, preferred_username, avatar_url, picture for OAuth users).
type Session struct {
	User_ID      string                 `json:"userId"`
	Email        string                 `json:"email"`
	Access_Token string                 `json:"-"`
	Metadata     map[string]interface{} `json:"-"`
}

type Login struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Signup struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

// MetadataString returns a string-valued metadata field, or "" when absent.
func (s Session) MetadataString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	if v, ok := s.Metadata[key].(string); ok {
		return v
	}
	return ""
}
