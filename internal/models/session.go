package models

// UserProfile is the backend's view of the logged-in user. Only the fields
// the client reads are typed.
type UserProfile struct {
	ID             string `json:"id,omitempty"`
	UserName       string `json:"userName"`
	Email          string `json:"email,omitempty"`
	UserImage      string `json:"user_image,omitempty"`
	TrafficCounter int    `json:"trafficCounter"`
}

// Session is the bearer token plus the profile it belongs to
type Session struct {
	Token string       `json:"token,omitempty"`
	User  *UserProfile `json:"user,omitempty"`
}

// Anonymous reports whether no credentials are held
func (s Session) Anonymous() bool {
	return s.Token == "" && s.User == nil
}

// PromptDismissed reports whether the login prompt should stay hidden
// because the user has visited more than threshold times.
func (s Session) PromptDismissed(threshold int) bool {
	return s.User != nil && s.User.TrafficCounter > threshold
}
