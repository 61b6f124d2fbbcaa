package models

import "time"

type UserRole string

const (
	RolePlayer    UserRole = "player"
	RoleReferee   UserRole = "referee"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
	RoleFounder   UserRole = "founder"
)

func (r UserRole) Valid() bool {
	switch r {
	case RolePlayer, RoleReferee, RoleOrganizer, RoleAdmin, RoleFounder:
		return true
	}
	return false
}

// CanModerate - может предлагать бан/мут/отстранение.
func (r UserRole) CanModerate() bool {
	return r == RoleAdmin || r == RoleFounder
}

type User struct {
	ID        int       `json:"id" db:"id"`
	Nickname  string    `json:"nickname" db:"nickname"`
	Email     string    `json:"email" db:"email"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
