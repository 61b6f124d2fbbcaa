package models

import "time"

type Screenshot struct {
	ID          int       `json:"id" db:"id"`
	MatchID     int       `json:"match_id" db:"match_id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	URL         string    `json:"url" db:"url"`
	Description *string   `json:"description,omitempty" db:"description"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
}

type ChatMessage struct {
	ID        int       `json:"id" db:"id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	AuthorID  int       `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	IsReferee bool      `json:"is_referee" db:"is_referee"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type VetoKind string

const (
	VetoBan  VetoKind = "ban"
	VetoPick VetoKind = "pick"
)

func (k VetoKind) Valid() bool {
	return k == VetoBan || k == VetoPick
}

// VetoEntry - шаг бан/пика карты или героя. Order начинается с 1 и растёт
// без пропусков в пределах матча.
type VetoEntry struct {
	ID        int       `json:"id" db:"id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	Kind      VetoKind  `json:"kind" db:"kind"`
	Order     int       `json:"order" db:"action_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
