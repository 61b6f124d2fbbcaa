package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
)

// Tournament представляет турнир.
type Tournament struct {
	ID               int              `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	TeamCapacity     int              `json:"team_capacity" db:"team_capacity"`
	RegistrationOpen bool             `json:"registration_open" db:"registration_open"`
	Status           TournamentStatus `json:"status" db:"status"`
	RoundCount       int              `json:"round_count" db:"round_count"`
	BracketStyle     string           `json:"bracket_style" db:"bracket_style"`
	ChampionTeamID   *int             `json:"champion_team_id,omitempty" db:"champion_team_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// HasBracket - сетка уже сгенерирована (топология неизменна).
func (t *Tournament) HasBracket() bool {
	return t.RoundCount > 0
}
