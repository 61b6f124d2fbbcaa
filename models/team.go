package models

import "time"

// Presence используется только для отображения, на права доступа не влияет.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceAway    Presence = "away"
	PresenceOffline Presence = "offline"
)

type Player struct {
	UserID   int      `json:"user_id" db:"user_id"`
	TeamID   int      `json:"team_id" db:"team_id"`
	Nickname string   `json:"nickname" db:"nickname"`
	Presence Presence `json:"presence" db:"presence"`
}

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CaptainID int       `json:"captain_id" db:"captain_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []Player `json:"members,omitempty" db:"-"`
}

// HasMember проверяет капитана и состав.
func (t *Team) HasMember(userID int) bool {
	if t == nil {
		return false
	}
	if t.CaptainID == userID {
		return true
	}
	for _, p := range t.Members {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
