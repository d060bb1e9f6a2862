package domain

import "time"

// UserFact is an ephemeral snapshot of an account, assembled each scan
// from the access and activity providers. It is never persisted.
type UserFact struct {
	ID             string
	Email          string
	Username       string
	DisplayName    string
	JoinedAt       time.Time
	LastActivityAt *time.Time
	VIP            bool
}

// Display returns the best human-readable name for the user.
func (u UserFact) Display() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// HasJoinDate reports whether the join timestamp is known.
func (u UserFact) HasJoinDate() bool {
	return !u.JoinedAt.IsZero()
}

// Removal records the outcome of a removal attempt for a user.
// A Success=true entry is terminal: no further lifecycle action fires
// for that id unless the user rejoins.
type Removal struct {
	When    time.Time `json:"when"`
	Success bool      `json:"success"`
	Reason  string    `json:"reason"`
}
